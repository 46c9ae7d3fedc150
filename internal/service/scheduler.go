package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler rebuilds the portfolios on a cron schedule so the stored ledgers
// and snapshots track fresh prices without manual refreshes.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the refresh job. The spec uses standard five-field
// cron syntax, e.g. "0 18 * * MON-FRI" for every weekday at 18:00.
func NewScheduler(spec string, portfolios *PortfolioService) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := portfolios.Refresh(ctx); err != nil {
			log.Printf("WARN: scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule refresh %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start begins running the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
