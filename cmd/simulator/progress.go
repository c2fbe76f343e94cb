package main

import (
	"context"
	"time"

	"github.com/signalsfoundry/worldframe/internal/logging"
	"github.com/signalsfoundry/worldframe/timectrl"
)

// watchProgress logs a line each time another multiple of every has passed
// on clock, until done is closed. It returns the number of lines logged.
// Marks reached during the final ticks are still logged after done closes.
func watchProgress(ctx context.Context, clock timectrl.SimClock, every timectrl.SimDuration, done <-chan struct{}, log logging.Logger) int {
	if !every.IsPositive() {
		<-done
		return 0
	}
	start := clock.Now()
	next := start.Add(every)
	var n int
	for {
		select {
		case <-clock.After(next.Sub(clock.Now())):
		case <-done:
			if clock.Now().Before(next) {
				return n
			}
		}
		n++
		log.Info(ctx, "simulation progress",
			logging.String("sim_time", next.Time().Format(time.RFC3339)),
			logging.Float("elapsed_s", next.Sub(start).Seconds()),
		)
		next = next.Add(every)
	}
}
