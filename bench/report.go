package bench

import (
	"fmt"
	"strings"
	"time"
)

// Report holds wall-clock timings of a completed run.
type Report struct {
	// Durations holds each repetition's duration, indexed by repetition.
	Durations []time.Duration

	// Wall is the elapsed wall-clock time of the whole run. With outer
	// parallelism it is less than the sum of the per-repetition durations.
	Wall time.Duration
}

func newReport(durations []time.Duration, wall time.Duration) *Report {
	return &Report{Durations: durations, Wall: wall}
}

// Reps returns the number of repetitions.
func (r *Report) Reps() int { return len(r.Durations) }

// Mean returns the mean per-repetition duration.
func (r *Report) Mean() time.Duration {
	if len(r.Durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range r.Durations {
		total += d
	}
	return total / time.Duration(len(r.Durations))
}

// Min returns the fastest repetition.
func (r *Report) Min() time.Duration {
	if len(r.Durations) == 0 {
		return 0
	}
	m := r.Durations[0]
	for _, d := range r.Durations[1:] {
		if d < m {
			m = d
		}
	}
	return m
}

// Max returns the slowest repetition.
func (r *Report) Max() time.Duration {
	if len(r.Durations) == 0 {
		return 0
	}
	m := r.Durations[0]
	for _, d := range r.Durations[1:] {
		if d > m {
			m = d
		}
	}
	return m
}

// String formats the report for human consumption.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "repetitions: %d\n", r.Reps())
	fmt.Fprintf(&b, "wall time:   %v\n", r.Wall.Round(time.Millisecond))
	fmt.Fprintf(&b, "per rep:     mean %v, min %v, max %v",
		r.Mean().Round(time.Millisecond),
		r.Min().Round(time.Millisecond),
		r.Max().Round(time.Millisecond),
	)
	return b.String()
}
