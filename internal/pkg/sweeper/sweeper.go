// Package sweeper runs the background maintenance loops: moving overdue
// listings to EXPIRED and flushing pending view counters to the database.
package sweeper

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
	metrics "github.com/iommarket/marketplace/internal/pkg/metrics/counter"
)

const (
	defaultExpiryInterval = 5 * time.Minute
	defaultFlushInterval  = 1 * time.Minute
	expiryBatchSize       = 200
)

// Sweeper owns the background tickers. Start and Stop are safe to call more
// than once.
type Sweeper struct {
	listings repository.ListingRepository
	now      func() time.Time

	expiryInterval time.Duration
	flushInterval  time.Duration

	expiryTicker *time.Ticker
	flushTicker  *time.Ticker
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
}

// New creates a sweeper over the listing repository.
func New(listings repository.ListingRepository) *Sweeper {
	return &Sweeper{
		listings:       listings,
		now:            time.Now,
		expiryInterval: defaultExpiryInterval,
		flushInterval:  defaultFlushInterval,
	}
}

// Start launches the background loops.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	// Recreate stop channel for each start cycle so the sweeper can be restarted safely.
	s.stopCh = make(chan struct{})
	s.running = true
	log.Info("[Sweeper] Starting background maintenance loops")

	s.expiryTicker = time.NewTicker(s.expiryInterval)
	s.wg.Add(1)
	go s.expiryWorker()

	s.flushTicker = time.NewTicker(s.flushInterval)
	s.wg.Add(1)
	go s.flushWorker()
}

// Stop halts the loops and waits for in-flight passes to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	close(s.stopCh)
	s.expiryTicker.Stop()
	s.flushTicker.Stop()
	s.wg.Wait()
	log.Info("[Sweeper] Stopped")
}

func (s *Sweeper) expiryWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.expiryTicker.C:
			if n, err := s.ExpireOverdue(); err != nil {
				log.Errorf("[Sweeper] Expiry pass failed: %v", err)
			} else if n > 0 {
				log.Infof("[Sweeper] Expired %d overdue listings", n)
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) flushWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.flushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Sweeper] Counter flush failed: %v", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// ExpireOverdue moves every live listing whose expiry date has passed to
// EXPIRED, one conditional write per row. Rows whose status changed between
// the read and the write are skipped; the next pass sees their new state.
func (s *Sweeper) ExpireOverdue() (int, error) {
	expired := 0
	for {
		batch, err := s.listings.ListExpired(s.now(), expiryBatchSize)
		if err != nil {
			return expired, err
		}
		if len(batch) == 0 {
			return expired, nil
		}
		for _, listing := range batch {
			err := s.listings.UpdateStatusIf(listing.ID, listing.Status, lifecycle.StatusExpired, nil)
			if errors.Is(err, models.ErrListingStatusConflict) {
				continue
			}
			if err != nil {
				return expired, err
			}
			expired++
		}
		if len(batch) < expiryBatchSize {
			return expired, nil
		}
	}
}
