package scoreboard

import "time"

// Timeframe is the inclusive window of creation times that count in a run.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the window, bounds included.
func (tf Timeframe) Contains(t time.Time) bool {
	return !t.Before(tf.Start) && !t.After(tf.End)
}

const (
	PriorityOutOfWindow = -1
	PriorityEmpty       = 0
	PriorityRejected    = 1
	PriorityPractice    = 2
	PriorityContestant  = 3
)

// Priority ranks a record for its slot. Higher priorities replace lower ones.
//
// Codeforces lists submissions newest first and Insert keeps the stored record
// on ties, so with that fetch order the newest record of the best class wins.
func Priority(rec *Record, tf Timeframe) int {
	if rec == nil {
		return PriorityEmpty
	}
	if rec.CreationTimeSeconds == nil || !tf.Contains(time.Unix(*rec.CreationTimeSeconds, 0)) {
		return PriorityOutOfWindow
	}
	if !rec.Accepted() {
		return PriorityRejected
	}
	if rec.InContest() {
		return PriorityContestant
	}
	return PriorityPractice
}
