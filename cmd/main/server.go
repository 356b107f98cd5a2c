package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CTAG07/ngramlm/pkg/corpus"
	"github.com/CTAG07/ngramlm/pkg/ngram"
)

// errNoModel is returned by model handlers before the first successful build.
var errNoModel = errors.New("no model has been built yet")

// builtModel is an immutable model together with what it was built from.
type builtModel struct {
	model   *ngram.Model
	corpus  string
	config  ModelConfig
	builtAt time.Time
}

// Server wires the corpus store and the current model to the HTTP API.
type Server struct {
	cm         *ConfigManager
	db         *sql.DB
	store      *corpus.Store
	logger     *slog.Logger
	current    atomic.Pointer[builtModel]
	buildMu    sync.Mutex
	actionChan chan string
	modelAPI   *ModelAPI
	corpusAPI  *CorpusAPI
	serverAPI  *ServerAPI
	apiMux     *http.ServeMux
}

// NewServer creates the store and API handlers and registers their routes.
func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	cfg := cm.Get()

	store, err := corpus.NewStore(db, cfg.Corpus.tokenizer())
	if err != nil {
		return nil, fmt.Errorf("error creating corpus store: %w", err)
	}
	store.SetLogger(logger)

	server := &Server{
		cm:         cm,
		db:         db,
		store:      store,
		logger:     logger,
		actionChan: actionChan,
		apiMux:     http.NewServeMux(),
	}
	server.modelAPI = NewModelAPI(server, logger)
	server.corpusAPI = NewCorpusAPI(server, logger)
	server.serverAPI = NewServerAPI(cm, actionChan, logger)

	server.modelAPI.RegisterRoutes(server.apiMux)
	server.corpusAPI.RegisterRoutes(server.apiMux)
	server.serverAPI.RegisterRoutes(server.apiMux)
	server.apiMux.HandleFunc("GET /api/health", server.handleHealthCheck)

	return server, nil
}

// Close releases the store's prepared statements.
func (s *Server) Close() {
	s.store.Close()
}

// Model returns the model currently being served, or errNoModel.
func (s *Server) Model() (*builtModel, error) {
	bm := s.current.Load()
	if bm == nil {
		return nil, errNoModel
	}
	return bm, nil
}

// Rebuild trains a new model from the configured corpus and swaps it in.
// Requests keep using the previous model until the new one is complete.
func (s *Server) Rebuild(ctx context.Context) (*builtModel, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	mc := *s.cm.Get().Model
	info, err := s.store.GetCorpusInfo(ctx, mc.Corpus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("corpus %q does not exist", mc.Corpus)
		}
		return nil, fmt.Errorf("failed to look up corpus %q: %w", mc.Corpus, err)
	}
	sentences, err := s.store.Sentences(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus %q: %w", mc.Corpus, err)
	}
	opts, err := mc.options(s.logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	model, err := ngram.New(mc.Order, sentences, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build model from corpus %q: %w", mc.Corpus, err)
	}

	bm := &builtModel{model: model, corpus: mc.Corpus, config: mc, builtAt: time.Now()}
	s.current.Store(bm)
	s.logger.InfoContext(ctx, "Model swapped in",
		slog.String("corpus", mc.Corpus),
		slog.String("model", model.String()),
		slog.Duration("build_time", time.Since(start)),
	)
	return bm, nil
}

// handleHealthCheck reports liveness and whether a model is being served.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": s.current.Load() != nil,
	})
}
