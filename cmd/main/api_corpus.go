package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/ngramlm/pkg/corpus"
)

// maxIngestBytes bounds a single ingest or import request body.
const maxIngestBytes = 64 << 20

// CorpusAPI manages the stored training corpora.
type CorpusAPI struct {
	server *Server
	logger *slog.Logger
}

// NewCorpusAPI creates a new instance of the CorpusAPI.
func NewCorpusAPI(server *Server, logger *slog.Logger) *CorpusAPI {
	return &CorpusAPI{server: server, logger: logger}
}

// RegisterRoutes sets up the routing for all /api/corpora endpoints.
func (c *CorpusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/corpora", c.handleListCorpora)
	mux.HandleFunc("POST /api/corpora", c.handleCreateCorpus)
	mux.HandleFunc("POST /api/corpora/import", c.handleImport)
	mux.HandleFunc("POST /api/corpora/vocabulary/prune", c.handlePruneVocabulary)
	mux.HandleFunc("DELETE /api/corpora/{name}", c.handleDeleteCorpus)
	mux.HandleFunc("POST /api/corpora/{name}/ingest", c.handleIngest)
	mux.HandleFunc("GET /api/corpora/{name}/export", c.handleExport)
}

type CreateCorpusRequest struct {
	Name string `json:"name"`
}

type IngestResponse struct {
	Corpus  corpus.CorpusInfo   `json:"corpus"`
	Result  corpus.IngestResult `json:"result"`
	Rebuilt bool                `json:"rebuilt"`
	Error   string              `json:"rebuild_error,omitempty"`
}

func (c *CorpusAPI) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	stats, err := c.server.store.GetStats(r.Context())
	if err != nil {
		c.logger.Error("Failed to get corpus stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve corpora: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (c *CorpusAPI) handleCreateCorpus(w http.ResponseWriter, r *http.Request) {
	var req CreateCorpusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Corpus name is required")
		return
	}
	if _, err := c.server.store.GetCorpusInfo(r.Context(), req.Name); err == nil {
		respondWithError(w, http.StatusConflict, fmt.Sprintf("Corpus %q already exists", req.Name))
		return
	}
	info, err := c.server.store.InsertCorpus(r.Context(), req.Name)
	if err != nil {
		c.logger.Error("Failed to insert corpus", "name", req.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create corpus: %v", err))
		return
	}
	respondWithJSON(w, http.StatusCreated, info)
}

// lookup resolves the {name} path value, answering 404 for unknown corpora.
func (c *CorpusAPI) lookup(w http.ResponseWriter, r *http.Request) (corpus.CorpusInfo, bool) {
	name := r.PathValue("name")
	info, err := c.server.store.GetCorpusInfo(r.Context(), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Corpus %q not found", name))
			return info, false
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to look up corpus: %v", err))
		return info, false
	}
	return info, true
}

func (c *CorpusAPI) handleDeleteCorpus(w http.ResponseWriter, r *http.Request) {
	info, ok := c.lookup(w, r)
	if !ok {
		return
	}
	if err := c.server.store.RemoveCorpus(r.Context(), info); err != nil {
		c.logger.Error("Failed to remove corpus", "name", info.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove corpus: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIngest stores the raw text body in the corpus. Ingesting into the
// corpus the model is configured for also rebuilds the model.
func (c *CorpusAPI) handleIngest(w http.ResponseWriter, r *http.Request) {
	info, ok := c.lookup(w, r)
	if !ok {
		return
	}
	cfg := c.server.cm.Get()
	body := http.MaxBytesReader(w, r.Body, maxIngestBytes)
	result, err := c.server.store.Ingest(r.Context(), info, body, cfg.Corpus.ingestOptions()...)
	if err != nil {
		c.logger.Error("Ingest failed", "name", info.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to ingest text: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, c.maybeRebuild(r, info, result))
}

func (c *CorpusAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	info, ok := c.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name+".json"))
	if err := c.server.store.ExportCorpus(r.Context(), info, w); err != nil {
		c.logger.Error("Failed to export corpus", "name", info.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to export corpus: %v", err))
	}
}

func (c *CorpusAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	cfg := c.server.cm.Get()
	body := http.MaxBytesReader(w, r.Body, maxIngestBytes)
	info, result, err := c.server.store.ImportCorpus(r.Context(), body, cfg.Corpus.ingestOptions()...)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to import corpus: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, c.maybeRebuild(r, info, result))
}

func (c *CorpusAPI) handlePruneVocabulary(w http.ResponseWriter, r *http.Request) {
	removed, err := c.server.store.PruneVocabulary(r.Context())
	if err != nil {
		c.logger.Error("Failed to prune vocabulary", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to prune vocabulary: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"tokens_removed": removed})
}

func (c *CorpusAPI) maybeRebuild(r *http.Request, info corpus.CorpusInfo, result corpus.IngestResult) IngestResponse {
	resp := IngestResponse{Corpus: info, Result: result}
	if info.Name != c.server.cm.Get().Model.Corpus || result.Sentences == 0 {
		return resp
	}
	if _, err := c.server.Rebuild(r.Context()); err != nil {
		c.logger.Warn("Rebuild after ingest failed", "corpus", info.Name, "error", err)
		resp.Error = err.Error()
		return resp
	}
	resp.Rebuilt = true
	return resp
}
