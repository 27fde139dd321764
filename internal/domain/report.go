package domain

import "time"

// CycleReport resume una iteración del control loop.
type CycleReport struct {
	StartedAt  time.Time
	Duration   time.Duration
	Resolved   int
	Markets    int
	Attempts   int
	Trades     int
	Skipped    int // pares ya ejecutados en este epoch
	Rejections map[RejectReason]int
	Evolved    bool
}

// Reject cuenta un rechazo por reason.
func (r *CycleReport) Reject(reason RejectReason) {
	if r.Rejections == nil {
		r.Rejections = make(map[RejectReason]int)
	}
	r.Rejections[reason]++
}
