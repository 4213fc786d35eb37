package suggestions

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const refreshTimeout = 2 * time.Minute

// Scheduler precomputes the reorder hint on a nightly schedule so the
// dashboard opens with a warm cache.
type Scheduler struct {
	svc  *Service
	cron *cron.Cron
}

func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{
		svc:  svc,
		cron: cron.New(cron.WithSeconds()),
	}
}

// Start registers the job. spec uses the 6-field cron format.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := s.svc.Refresh(ctx); err != nil {
			log.Printf("[suggestions] nightly refresh: %v", err)
			return
		}
		log.Println("[suggestions] nightly refresh completed")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[suggestions] scheduler started (spec %q)", spec)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
