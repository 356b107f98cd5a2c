package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/CTAG07/ngramlm/pkg/ngram"
)

// ModelAPI serves queries against the current model.
type ModelAPI struct {
	server *Server
	logger *slog.Logger
}

// NewModelAPI creates a new instance of the ModelAPI.
func NewModelAPI(server *Server, logger *slog.Logger) *ModelAPI {
	return &ModelAPI{server: server, logger: logger}
}

// RegisterRoutes sets up the routing for all /api/model endpoints.
func (m *ModelAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/model", m.handleModelInfo)
	mux.HandleFunc("POST /api/model/prob", m.handleProb)
	mux.HandleFunc("POST /api/model/generate", m.handleGenerate)
	mux.HandleFunc("POST /api/model/entropy", m.handleEntropy)
	mux.HandleFunc("POST /api/model/rebuild", m.handleRebuild)
	mux.HandleFunc("GET /api/model/config", m.handleGetConfig)
	mux.HandleFunc("PUT /api/model/config", m.handlePutConfig)
}

type ModelInfoResponse struct {
	Summary string           `json:"summary"`
	Corpus  string           `json:"corpus"`
	BuiltAt time.Time        `json:"built_at"`
	Stats   ngram.ModelStats `json:"stats"`
}

type ProbRequest struct {
	Word    string   `json:"word"`
	Context []string `json:"context"`
}

type ProbResponse struct {
	Prob    float64 `json:"prob"`
	LogProb float64 `json:"logprob"`
}

type GenerateRequest struct {
	NumWords int      `json:"num_words"`
	Context  []string `json:"context"`
	Seed     *uint64  `json:"seed,omitempty"`
	Stream   bool     `json:"stream"`
}

type GenerateResponse struct {
	Words []string `json:"words"`
	Text  string   `json:"text"`
}

type EntropyRequest struct {
	Tokens []string `json:"tokens"`
	Text   string   `json:"text"` // Tokenized with the corpus tokenizer when Tokens is empty.
}

type EntropyResponse struct {
	Tokens     int     `json:"tokens"`
	Entropy    float64 `json:"entropy"`
	Perplexity float64 `json:"perplexity"`
}

// current fetches the served model, answering 503 if there is none.
func (m *ModelAPI) current(w http.ResponseWriter) (*builtModel, bool) {
	bm, err := m.server.Model()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return bm, true
}

func (m *ModelAPI) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	bm, ok := m.current(w)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, ModelInfoResponse{
		Summary: bm.model.String(),
		Corpus:  bm.corpus,
		BuiltAt: bm.builtAt,
		Stats:   bm.model.Stats(),
	})
}

func (m *ModelAPI) handleProb(w http.ResponseWriter, r *http.Request) {
	var req ProbRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bm, ok := m.current(w)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, ProbResponse{
		Prob:    bm.model.Prob(req.Word, req.Context),
		LogProb: bm.model.LogProb(req.Word, req.Context),
	})
}

func (m *ModelAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bm, ok := m.current(w)
	if !ok {
		return
	}
	limit := bm.config.MaxGenerateWords
	if limit <= 0 {
		limit = defaultMaxGenerateWords
	}
	if req.NumWords <= 0 || req.NumWords > limit {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("num_words must be between 1 and %d", limit))
		return
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	if !req.Stream {
		words := bm.model.Generate(rng, req.NumWords, req.Context)
		respondWithJSON(w, http.StatusOK, GenerateResponse{Words: words, Text: strings.Join(words, " ")})
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for word := range bm.model.GenerateStream(r.Context(), rng, req.NumWords, req.Context) {
		if _, err := fmt.Fprintln(w, word); err != nil {
			m.logger.Debug("Client went away during streamed generation", "error", err)
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func (m *ModelAPI) handleEntropy(w http.ResponseWriter, r *http.Request) {
	var req EntropyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bm, ok := m.current(w)
	if !ok {
		return
	}

	tokens := req.Tokens
	if len(tokens) == 0 && req.Text != "" {
		sentences, err := m.server.cm.Get().Corpus.tokenizer().Sentences(strings.NewReader(req.Text))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to tokenize text: %v", err))
			return
		}
		for _, sent := range sentences {
			tokens = append(tokens, sent...)
		}
	}

	entropy, err := bm.model.Entropy(tokens)
	if err != nil {
		if errors.Is(err, ngram.ErrDegenerateText) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	perplexity, err := bm.model.Perplexity(tokens)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, EntropyResponse{Tokens: len(tokens), Entropy: entropy, Perplexity: perplexity})
}

func (m *ModelAPI) handleRebuild(w http.ResponseWriter, r *http.Request) {
	bm, err := m.server.Rebuild(r.Context())
	if err != nil {
		m.logger.Error("Model rebuild failed", "error", err)
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, ModelInfoResponse{
		Summary: bm.model.String(),
		Corpus:  bm.corpus,
		BuiltAt: bm.builtAt,
		Stats:   bm.model.Stats(),
	})
}

func (m *ModelAPI) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, m.server.cm.Get().Model)
}

// handlePutConfig saves a new model config and rebuilds with it. The saved
// config stays in place even if the rebuild fails, so a corpus can be
// configured before it is ingested.
func (m *ModelAPI) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var mc ModelConfig
	if !decodeJSON(w, r, &mc) {
		return
	}
	if err := m.server.cm.UpdateModel(mc); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.logger.Info("Model config updated", "corpus", mc.Corpus, "order", mc.Order, "estimator", mc.Estimator)

	if _, err := m.server.Rebuild(r.Context()); err != nil {
		m.logger.Warn("Rebuild after config update failed", "error", err)
		respondWithJSON(w, http.StatusAccepted, map[string]any{"config": mc, "rebuild_error": err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"config": mc})
}
