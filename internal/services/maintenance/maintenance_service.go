package maintenance

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/common"
	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// Service runs scheduled Badger value-log garbage collection. Document
// blobs churn the value log far more than the JSON records do, so periodic
// GC keeps the data directory from growing unbounded.
type Service struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
	config  *common.MaintenanceConfig
	cron    *cron.Cron
}

// NewService creates a new maintenance service
func NewService(storage interfaces.StorageManager, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		config:  &config.Maintenance,
	}
}

// Start schedules the GC job. A no-op when maintenance is disabled.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Storage maintenance disabled")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.config.GCSchedule, s.runGC); err != nil {
		return fmt.Errorf("invalid gc_schedule %q: %w", s.config.GCSchedule, err)
	}
	s.cron.Start()

	s.logger.Info().
		Str("schedule", s.config.GCSchedule).
		Msg("Storage maintenance scheduled")

	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// runGC runs one value-log GC pass. Badger returns ErrNoRewrite when there
// is nothing worth collecting; that is the normal idle outcome.
func (s *Service) runGC() {
	store, ok := s.storage.DB().(*badgerhold.Store)
	if !ok || store == nil {
		s.logger.Warn().Msg("Storage does not expose a badger store, skipping GC")
		return
	}

	collected := 0
	for {
		if err := store.Badger().RunValueLogGC(0.5); err != nil {
			break
		}
		collected++
	}

	if collected > 0 {
		s.logger.Info().Int("files", collected).Msg("Value log GC collected files")
	} else {
		s.logger.Debug().Msg("Value log GC found nothing to collect")
	}
}
