package app

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/common"
	"github.com/ternarybob/audile/internal/handlers"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/services/ai"
	"github.com/ternarybob/audile/internal/services/auth"
	"github.com/ternarybob/audile/internal/services/events"
	"github.com/ternarybob/audile/internal/services/export"
	"github.com/ternarybob/audile/internal/services/ledger"
	"github.com/ternarybob/audile/internal/services/maintenance"
	"github.com/ternarybob/audile/internal/services/orchestrator"
	"github.com/ternarybob/audile/internal/services/pdf"
	"github.com/ternarybob/audile/internal/services/playback"
	"github.com/ternarybob/audile/internal/services/profile"
	"github.com/ternarybob/audile/internal/services/render"
	badgerstorage "github.com/ternarybob/audile/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	EventService       interfaces.EventService
	AIService          interfaces.AIService
	PDFService         interfaces.PDFService
	Renderer           *render.ChromeRenderer
	LedgerService      *ledger.Service
	ProfileService     *profile.Service
	AuthService        *auth.Service
	Orchestrator       *orchestrator.Orchestrator
	Playback           *playback.Controller
	ExportService      *export.Service
	MaintenanceService *maintenance.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	AnalysisHandler *handlers.AnalysisHandler
	HistoryHandler  *handlers.HistoryHandler
	SpeechHandler   *handlers.SpeechHandler
	ProfileHandler  *handlers.ProfileHandler
	AuthHandler     *handlers.AuthHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Storage
	storageManager, err := badgerstorage.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, err
	}
	app.StorageManager = storageManager

	// Event bus
	app.EventService = events.NewService(logger)

	// AI boundary
	aiService, err := ai.NewGeminiService(cfg, logger)
	if err != nil {
		app.StorageManager.Close()
		return nil, err
	}
	app.AIService = aiService

	// Document services
	app.PDFService = pdf.NewService(logger)
	renderer, err := render.NewChromeRenderer(cfg, app.PDFService, logger)
	if err != nil {
		app.StorageManager.Close()
		return nil, err
	}
	app.Renderer = renderer

	// Domain services
	app.LedgerService = ledger.NewService(storageManager.HistoryStorage(), storageManager.BlobStorage(), logger)
	app.ProfileService = profile.NewService(storageManager.ProfileStorage(), logger)
	app.AuthService = auth.NewService(storageManager.AuthStorage(), storageManager.ProfileStorage(), logger)
	app.ExportService = export.NewService(logger)

	sink, err := playback.NewExecSink(cfg.Speech.PlayerCommand, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Playback = playback.NewController(app.AIService, app.EventService, sink, cfg.Speech.SampleRate, logger)

	app.Orchestrator = orchestrator.NewOrchestrator(
		app.AIService,
		app.PDFService,
		app.Renderer,
		app.LedgerService,
		app.ProfileService,
		app.EventService,
		logger,
	)

	// Background maintenance
	app.MaintenanceService = maintenance.NewService(storageManager, cfg, logger)
	if cfg.Maintenance.Enabled {
		if err := app.MaintenanceService.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start maintenance service")
		}
	}

	// HTTP handlers
	app.APIHandler = handlers.NewAPIHandler()
	app.AnalysisHandler = handlers.NewAnalysisHandler(app.Orchestrator, logger)
	app.HistoryHandler = handlers.NewHistoryHandler(app.LedgerService, app.Orchestrator, app.ExportService, logger)
	app.SpeechHandler = handlers.NewSpeechHandler(app.Playback, app.ProfileService, logger)
	app.ProfileHandler = handlers.NewProfileHandler(app.ProfileService, logger)
	app.AuthHandler = handlers.NewAuthHandler(app.AuthService, logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, logger)

	if err := app.WSHandler.RegisterEventHandlers(); err != nil {
		app.Close()
		return nil, err
	}

	logger.Info().Msg("Application initialized")

	return app, nil
}

// Close shuts down all application components in reverse dependency order
func (a *App) Close() {
	if a.WSHandler != nil {
		a.WSHandler.Close()
	}
	if a.MaintenanceService != nil {
		a.MaintenanceService.Stop()
	}
	if a.Renderer != nil {
		if err := a.Renderer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close page renderer")
		}
	}
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
		}
	}

	a.Logger.Info().Msg("Application shut down")
}
