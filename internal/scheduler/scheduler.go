package scheduler

import (
	"context"
	"log"
	"time"

	"fitsight/coaching-app/internal/service"
)

// ReminderScheduler drives the periodic reminder sweep: one flat interval
// timer, each tick running the sweep to completion before the next fires.
// There is no mid-tick cancellation; Stop waits for an in-flight sweep via
// the done channel.
type ReminderScheduler struct {
	reminders service.ReminderService
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
}

// NewReminderScheduler creates a scheduler sweeping at the given interval.
func NewReminderScheduler(reminders service.ReminderService, interval time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ReminderScheduler{
		reminders: reminders,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *ReminderScheduler) Start() {
	go s.run()
	log.Printf("Reminder scheduler started (interval %s)", s.interval)
}

func (s *ReminderScheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *ReminderScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if err := s.reminders.RunSweep(ctx); err != nil {
		log.Printf("WARN: reminder sweep failed: %v", err)
	}
}

// Stop ends the loop and waits for any in-flight sweep to finish.
func (s *ReminderScheduler) Stop() {
	close(s.stop)
	<-s.done
	log.Println("Reminder scheduler stopped")
}
