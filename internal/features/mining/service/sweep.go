package service

import (
	"context"
	"sync"
	"time"

	"hashminer-backend/internal/common/logger"
)

// Sweeper owns the background mining pass. It is started explicitly and
// stopped cleanly at shutdown; nothing runs as a side effect of package init.
type Sweeper struct {
	ctx      context.Context
	cancel   context.CancelFunc
	service  Service
	interval time.Duration
	wg       sync.WaitGroup
}

func NewSweeper(service Service, interval time.Duration) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		ctx:      ctx,
		cancel:   cancel,
		service:  service,
		interval: interval,
	}
}

func (s *Sweeper) Start() {
	logger.Info().
		Dur("interval", s.interval).
		Msg("Starting mining sweeper")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.service.RunSweep(s.ctx); err != nil {
					logger.Error().Err(err).Msg("Mining sweep failed")
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	logger.Info().Msg("Stopping mining sweeper")
	s.cancel()
	s.wg.Wait()
	logger.Info().Msg("Mining sweeper stopped")
}
