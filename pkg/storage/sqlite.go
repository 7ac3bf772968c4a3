package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolframtools/wolfram-mcp/pkg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	db *gorm.DB
}

type Config struct {
	DatabasePath string
	Debug        bool
}

func NewSQLiteStorage(cfg Config) (*SQLiteStorage, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	database, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// Auto-migrate schema
	if err := database.AutoMigrate(&models.TokenBalance{}, &models.Action{}, &models.CacheEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: database}, nil
}

func (s *SQLiteStorage) GetBalance(ctx context.Context, userID string) (*models.TokenBalance, error) {
	var balance models.TokenBalance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Distinguish a soft-deleted account from one that never existed.
		var deleted int64
		s.db.WithContext(ctx).Unscoped().Model(&models.TokenBalance{}).
			Where("user_id = ? AND deleted_at IS NOT NULL", userID).
			Count(&deleted)
		if deleted > 0 {
			return nil, ErrUserDeleted
		}
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *SQLiteStorage) CreditBalance(ctx context.Context, userID string, amount int64) (*models.TokenBalance, error) {
	var balance models.TokenBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&balance).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			balance = models.TokenBalance{UserID: userID, Balance: amount}
			return tx.Create(&balance).Error
		}
		if err != nil {
			return err
		}
		balance.Balance += amount
		return tx.Save(&balance).Error
	})
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *SQLiteStorage) DeleteBalance(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.TokenBalance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ConsumeAction records the action and deducts its cost in one transaction.
// The unique index on action_id makes replays of the same logical invocation
// a no-op, so the balance is deducted at most once per ActionID.
func (s *SQLiteStorage) ConsumeAction(ctx context.Context, action *models.Action) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Action{}).
			Where("action_id = ?", action.ActionID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		res := tx.Model(&models.TokenBalance{}).
			Where("user_id = ? AND balance >= ?", action.UserID, action.Cost).
			Update("balance", gorm.Expr("balance - ?", action.Cost))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.TokenBalance{}).
				Where("user_id = ?", action.UserID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientBalance
		}

		return tx.Create(action).Error
	})
}

func (s *SQLiteStorage) GetAction(ctx context.Context, actionID string) (*models.Action, error) {
	var action models.Action
	err := s.db.WithContext(ctx).Where("action_id = ?", actionID).First(&action).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (s *SQLiteStorage) GetActions(ctx context.Context, userID string, limit, offset int) ([]models.Action, int64, error) {
	var actions []models.Action
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Action{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	query.Count(&total)

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&actions).Error
	return actions, total, err
}

func (s *SQLiteStorage) GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.Expired(time.Now()) {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}

func (s *SQLiteStorage) PutCacheEntry(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "created_at"}),
	}).Create(&entry).Error
}

func (s *SQLiteStorage) PurgeExpiredCacheEntries(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
