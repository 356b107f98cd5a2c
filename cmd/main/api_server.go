package main

import (
	"log/slog"
	"net/http"
)

const (
	actionShutdown = "shutdown"
	actionRestart  = "restart"
)

// ServerAPI holds the dependencies for the process level API handlers.
type ServerAPI struct {
	cm         *ConfigManager
	actionChan chan string
	logger     *slog.Logger
}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// NewServerAPI creates a new instance of the ServerAPI.
func NewServerAPI(cm *ConfigManager, actionChan chan string, logger *slog.Logger) *ServerAPI {
	return &ServerAPI{cm: cm, actionChan: actionChan, logger: logger}
}

// RegisterRoutes sets up the routing for all /api/server endpoints.
func (a *ServerAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/server/config", a.handleConfig)
	mux.HandleFunc("GET /api/server/version", a.handleVersion)
	mux.HandleFunc("POST /api/server/shutdown", a.handleShutdown)
	mux.HandleFunc("POST /api/server/restart", a.handleRestart)
}

func (a *ServerAPI) handleConfig(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

func (a *ServerAPI) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, VersionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
}

func (a *ServerAPI) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	a.sendAction(w, actionShutdown)
}

// handleRestart reloads the config file and reopens the database.
func (a *ServerAPI) handleRestart(w http.ResponseWriter, _ *http.Request) {
	a.sendAction(w, actionRestart)
}

func (a *ServerAPI) sendAction(w http.ResponseWriter, action string) {
	select {
	case a.actionChan <- action:
		a.logger.Info("Server action requested via API", "action", action)
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": action + " initiated"})
	default:
		respondWithError(w, http.StatusConflict, "Another server action is already pending")
	}
}
