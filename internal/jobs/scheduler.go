package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"learnhub/gateway/internal/catalog"
	"learnhub/gateway/internal/session"
)

// Scheduler runs the background jobs: the periodic catalog refresh and an
// hourly audit of the live session count.
type Scheduler struct {
	cron     *cron.Cron
	catalog  *catalog.Catalog
	sessions session.Store
	spec     string
	log      zerolog.Logger
}

func NewScheduler(courseCatalog *catalog.Catalog, sessions session.Store, refreshSpec string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		catalog:  courseCatalog,
		sessions: sessions,
		spec:     refreshSpec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refreshCatalog); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.auditSessions); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to a bound.
func (s *Scheduler) Stop() {
	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.catalog.Refresh(ctx); err != nil {
		s.log.Error().Err(err).Msg("catalog refresh failed")
	}
}

func (s *Scheduler) auditSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := s.sessions.Count(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session audit failed")
		return
	}
	s.log.Info().Int("live_sessions", count).Msg("session audit")
}
