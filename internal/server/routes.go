package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Analysis
	mux.HandleFunc("/api/analyze/explain", s.app.AnalysisHandler.ExplainHandler)
	mux.HandleFunc("/api/analyze/assess", s.app.AnalysisHandler.AssessHandler)
	mux.HandleFunc("/api/analyze/vocal", s.app.AnalysisHandler.VocalHandler)
	mux.HandleFunc("/api/analyze/state", s.app.AnalysisHandler.StateHandler)

	// API routes - History
	mux.HandleFunc("/api/history", s.app.HistoryHandler.ListHandler)
	mux.HandleFunc("/api/history/", s.app.HistoryHandler.EntryHandler) // GET/DELETE /{id}, POST /{id}/resume, POST /{id}/blob, GET /{id}/export, PUT /{id}/page
	mux.HandleFunc("/api/sessions/", s.app.HistoryHandler.PageImageHandler)

	// API routes - Speech playback
	mux.HandleFunc("/api/speech/play", s.app.SpeechHandler.PlayHandler)
	mux.HandleFunc("/api/speech/stop", s.app.SpeechHandler.StopHandler)
	mux.HandleFunc("/api/speech/status", s.app.SpeechHandler.StatusHandler)

	// API routes - Profile and catalogs
	mux.HandleFunc("/api/profile", s.app.ProfileHandler.ProfileRoute)
	mux.HandleFunc("/api/profile/personas", s.app.ProfileHandler.PersonasHandler)
	mux.HandleFunc("/api/catalog/languages", s.app.ProfileHandler.LanguagesHandler)
	mux.HandleFunc("/api/catalog/voices", s.app.ProfileHandler.VoicesHandler)

	// API routes - Authentication
	mux.HandleFunc("/api/auth/status", s.app.AuthHandler.StatusHandler)
	mux.HandleFunc("/api/auth/login", s.app.AuthHandler.LoginHandler)
	mux.HandleFunc("/api/auth/logout", s.app.AuthHandler.LogoutHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
