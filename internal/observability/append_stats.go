package observability

import (
	"sync/atomic"
	"time"
)

// AppendStats keeps process-local ledger append counters for the admin
// overview. Prometheus has the same data, but the overview should not need a
// scrape to answer.
type AppendStats struct {
	committed atomic.Uint64
	failed    atomic.Uint64
	invalid   atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewAppendStats() *AppendStats {
	return &AppendStats{}
}

// ObserveAppend satisfies ledger.Observer.
func (s *AppendStats) ObserveAppend(result string, d time.Duration) {
	switch result {
	case "committed":
		s.committed.Add(1)
	case "failed":
		s.failed.Add(1)
	case "invalid":
		s.invalid.Add(1)
	}

	ns := d.Nanoseconds()
	s.durationCount.Add(1)
	s.durationTotal.Add(ns)

	for {
		curr := s.durationMax.Load()

		if ns <= curr {
			return
		}

		if s.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type AppendStatsSnapshot struct {
	Committed       uint64        `json:"committed"`
	Failed          uint64        `json:"failed"`
	Invalid         uint64        `json:"invalid"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (s *AppendStats) Snapshot() AppendStatsSnapshot {
	count := s.durationCount.Load()
	total := s.durationTotal.Load()

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return AppendStatsSnapshot{
		Committed:       s.committed.Load(),
		Failed:          s.failed.Load(),
		Invalid:         s.invalid.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(s.durationMax.Load()),
	}
}

// Observers fans one append outcome out to several sinks.
type Observers []interface {
	ObserveAppend(result string, d time.Duration)
}

func (o Observers) ObserveAppend(result string, d time.Duration) {
	for _, obs := range o {
		obs.ObserveAppend(result, d)
	}
}
