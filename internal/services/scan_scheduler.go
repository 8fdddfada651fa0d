package services

import (
	"log"
	"sync"
	"time"
)

// ScanScheduler runs the detection cycle on a fixed interval. Overlap is
// handled at two levels: the scheduler skips a tick while the previous
// cycle is still running, and the scanner skips individual accounts still
// locked by a manual run.
type ScanScheduler struct {
	scanner  *Scanner
	interval time.Duration
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
	scanning sync.Mutex
}

// NewScanScheduler creates a new scan scheduler
func NewScanScheduler(scanner *Scanner, interval time.Duration) *ScanScheduler {
	return &ScanScheduler{
		scanner:  scanner,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic scan loop
func (s *ScanScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[ScanScheduler] Starting with interval: %v", s.interval)

	go func() {
		// Give the server a moment to come up before the first cycle
		select {
		case <-time.After(10 * time.Second):
			log.Println("[ScanScheduler] Running first scan...")
			s.runCycle()
		case <-s.stopChan:
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				log.Println("[ScanScheduler] Running scheduled scan...")
				s.runCycle()
			case <-s.stopChan:
				log.Println("[ScanScheduler] Stopping")
				return
			}
		}
	}()
}

// Stop stops the periodic scan loop
func (s *ScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopChan)
	s.running = false
}

// runCycle runs one cycle unless the previous one is still going
func (s *ScanScheduler) runCycle() {
	if !s.scanning.TryLock() {
		log.Println("[ScanScheduler] Previous scan still running, skipping this cycle")
		return
	}
	defer s.scanning.Unlock()

	s.scanner.ProcessAllAccounts()
}
