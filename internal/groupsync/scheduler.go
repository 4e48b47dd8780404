package groupsync

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dropDatabas3/multiblog/internal/observability/logger"
)

// Scheduler dispara SyncAll según una expresión cron. Una pasada a la vez:
// si la anterior sigue corriendo, la nueva se saltea.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(schedule string, eng *Engine) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		start := time.Now()
		eng.SyncAll(ctx)
		logger.L().Named("groupsync").Info("scheduled sweep finished",
			logger.Duration(time.Since(start)))
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop frena el cron y espera a que termine la pasada en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
