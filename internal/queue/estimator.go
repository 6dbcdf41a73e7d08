package queue

import (
	"sync"
	"time"
)

// DefaultServiceTime is assumed per patient until a specialization has
// serve history of its own.
const DefaultServiceTime = 15 * time.Minute

// emaAlpha weights the newest serve interval; history decays at
// (1 - emaAlpha) per serve.
const emaAlpha = 0.2

// Estimator turns a queue position into an estimated wait. It keeps one
// exponential moving average of service duration per specialization,
// updated on every serve. The model assumes one doctor serving the line
// serially; the result is an approximation, not a guarantee.
type Estimator struct {
	mu         sync.Mutex
	defaultDur time.Duration
	avg        map[int64]time.Duration
	lastServe  map[int64]time.Time
}

func NewEstimator(defaultDur time.Duration) *Estimator {
	if defaultDur <= 0 {
		defaultDur = DefaultServiceTime
	}
	return &Estimator{
		defaultDur: defaultDur,
		avg:        make(map[int64]time.Duration),
		lastServe:  make(map[int64]time.Time),
	}
}

// RecordServe feeds one serve event into the moving average. The sample
// is the gap since the previous serve in the same specialization; the
// first serve has no predecessor, so the served patient's own wait is
// used instead.
func (est *Estimator) RecordServe(specializationID int64, joinedAt, servedAt time.Time) {
	est.mu.Lock()
	defer est.mu.Unlock()

	var sample time.Duration
	if last, ok := est.lastServe[specializationID]; ok {
		sample = servedAt.Sub(last)
	} else {
		sample = servedAt.Sub(joinedAt)
	}
	est.lastServe[specializationID] = servedAt
	if sample < 0 {
		return
	}

	if prev, ok := est.avg[specializationID]; ok {
		est.avg[specializationID] = time.Duration(emaAlpha*float64(sample) + (1-emaAlpha)*float64(prev))
	} else {
		est.avg[specializationID] = sample
	}
}

// Estimate returns position × average service duration. Monotonic in
// position by construction.
func (est *Estimator) Estimate(specializationID int64, position int) time.Duration {
	if position < 1 {
		return 0
	}
	return time.Duration(position) * est.Average(specializationID)
}

// Average reports the current per-specialization service duration, or
// the configured default when no serve history exists yet.
func (est *Estimator) Average(specializationID int64) time.Duration {
	est.mu.Lock()
	defer est.mu.Unlock()
	if avg, ok := est.avg[specializationID]; ok {
		return avg
	}
	return est.defaultDur
}
