package web

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tidy-app/tidy/internal/config"
	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/internal/pipeline"
	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/internal/undo"
)

type Server struct {
	router  *mux.Router
	hub     *Hub
	version string
	logger  *zap.Logger

	store   *config.Store
	rules   *rules.Manager
	history *history.Store
	undo    *undo.Engine

	baseCfg *config.Config

	mu          sync.Mutex
	lastPreview *pipeline.PreviewResult
	lastRunCfg  *config.Config
}

func NewServer(store *config.Store, hist *history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:  mux.NewRouter(),
		hub:     NewHub(),
		version: "unknown",
		logger:  logger,
		store:   store,
		rules:   rules.NewManager(store),
		history: hist,
		undo:    undo.New(hist, logger),
	}

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
	api.HandleFunc("/browse", s.handleBrowse).Methods("GET")
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/config", s.handleSaveConfig).Methods("POST")
	api.HandleFunc("/scan", s.handleScan).Methods("POST")
	api.HandleFunc("/preview", s.handlePreview).Methods("POST")
	api.HandleFunc("/apply", s.handleApply).Methods("POST")
	api.HandleFunc("/run", s.handleRun).Methods("POST")
	api.HandleFunc("/ws", s.handleWebSocket)

	// Rule routes
	api.HandleFunc("/rules", s.handleListRules).Methods("GET")
	api.HandleFunc("/rules/metadata", s.handleCreateMetadataRule).Methods("POST")
	api.HandleFunc("/rules/metadata/{id}", s.handleUpdateMetadataRule).Methods("PUT")
	api.HandleFunc("/rules/metadata/{id}", s.handleDeleteMetadataRule).Methods("DELETE")
	api.HandleFunc("/rules/filename", s.handleCreateFilenameRule).Methods("POST")
	api.HandleFunc("/rules/filename/{id}", s.handleUpdateFilenameRule).Methods("PUT")
	api.HandleFunc("/rules/filename/{id}", s.handleDeleteFilenameRule).Methods("DELETE")
	api.HandleFunc("/rules/priority/preview", s.handlePriorityPreview).Methods("GET")
	api.HandleFunc("/rules/priority", s.handleSetPriority).Methods("POST")
	api.HandleFunc("/rules/reorder", s.handleReorderRules).Methods("POST")

	// History and undo routes
	api.HandleFunc("/history", s.handleListHistory).Methods("GET")
	api.HandleFunc("/history", s.handleClearHistory).Methods("DELETE")
	api.HandleFunc("/history/{id}", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/history/{id}/undo-preview", s.handleUndoPreview).Methods("GET")
	api.HandleFunc("/history/{id}/undo", s.handleUndo).Methods("POST")

	// Preset routes
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleSavePreset).Methods("POST")
	api.HandleFunc("/presets/load", s.handleLoadPreset).Methods("GET")
	api.HandleFunc("/presets/delete", s.handleDeletePreset).Methods("DELETE")

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("web/static")))
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting tidy Web UI at http://%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}
