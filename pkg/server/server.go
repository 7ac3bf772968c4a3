package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wolframtools/wolfram-mcp/pkg/cache"
	"github.com/wolframtools/wolfram-mcp/pkg/ledger"
	"github.com/wolframtools/wolfram-mcp/pkg/pipeline"
	"github.com/wolframtools/wolfram-mcp/pkg/storage"
	"github.com/wolframtools/wolfram-mcp/pkg/wolfram"
)

type Server struct {
	mcp.Server
	storage  storage.Storage
	ledger   ledger.Ledger
	memoizer *cache.Memoizer
	pipeline *pipeline.Pipeline
	wolfram  *wolfram.Client
}

func NewServer(impl *mcp.Implementation, store storage.Storage, ldgr ledger.Ledger, memoizer *cache.Memoizer, pipe *pipeline.Pipeline, client *wolfram.Client) *Server {
	return &Server{
		Server:   *mcp.NewServer(impl, nil),
		storage:  store,
		ledger:   ldgr,
		memoizer: memoizer,
		pipeline: pipe,
		wolfram:  client,
	}
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

func (s *Server) Ledger() ledger.Ledger {
	return s.ledger
}

func (s *Server) Cache() *cache.Memoizer {
	return s.memoizer
}

func (s *Server) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

func (s *Server) Wolfram() *wolfram.Client {
	return s.wolfram
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
