package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimatorDefaultWithoutHistory(t *testing.T) {
	est := NewEstimator(15 * time.Minute)

	assert.Equal(t, 15*time.Minute, est.Average(1))
	assert.Equal(t, 15*time.Minute, est.Estimate(1, 1))
	assert.Equal(t, 45*time.Minute, est.Estimate(1, 3))
	assert.Equal(t, time.Duration(0), est.Estimate(1, 0))
}

func TestEstimatorFirstServeUsesOwnWait(t *testing.T) {
	est := NewEstimator(15 * time.Minute)
	joined := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// No previous serve to measure a gap from; the served patient
	// waited 10 minutes, so that becomes the first sample.
	est.RecordServe(1, joined, joined.Add(10*time.Minute))
	assert.Equal(t, 10*time.Minute, est.Average(1))
}

func TestEstimatorEMAUpdate(t *testing.T) {
	est := NewEstimator(15 * time.Minute)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	est.RecordServe(1, base, base.Add(10*time.Minute))
	// Next serve 20 minutes after the previous one.
	est.RecordServe(1, base.Add(5*time.Minute), base.Add(30*time.Minute))

	// 0.2*20m + 0.8*10m = 12m
	assert.Equal(t, 12*time.Minute, est.Average(1))
}

func TestEstimatorMonotonicInPosition(t *testing.T) {
	est := NewEstimator(15 * time.Minute)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	est.RecordServe(1, base, base.Add(7*time.Minute))

	prev := time.Duration(0)
	for pos := 1; pos <= 10; pos++ {
		cur := est.Estimate(1, pos)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestEstimatorPerSpecializationAverages(t *testing.T) {
	est := NewEstimator(15 * time.Minute)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	est.RecordServe(1, base, base.Add(5*time.Minute))

	// Specialization 2 has no history; it keeps the default.
	assert.Equal(t, 5*time.Minute, est.Average(1))
	assert.Equal(t, 15*time.Minute, est.Average(2))
}

func TestEstimatorIgnoresNegativeSamples(t *testing.T) {
	est := NewEstimator(15 * time.Minute)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	est.RecordServe(1, base, base.Add(10*time.Minute))
	// Out-of-order clock: serve before the last one. Dropped.
	est.RecordServe(1, base, base.Add(5*time.Minute))

	assert.Equal(t, 10*time.Minute, est.Average(1))
}

func TestEstimatorZeroDefaultFallsBack(t *testing.T) {
	est := NewEstimator(0)
	assert.Equal(t, DefaultServiceTime, est.Average(9))
}
