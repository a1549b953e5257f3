package usage

import "time"

const (
	defaultPlan  = "Free"
	DefaultLimit = 30
)

// Policy decides the plan, limit and window of a fresh usage record.
type Policy struct {
	Plan  string
	Limit int
	Now   func() time.Time
}

// DefaultPolicy returns the monthly free plan with the given limit.
func DefaultPolicy(limit int) Policy {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Policy{Plan: defaultPlan, Limit: limit, Now: time.Now}
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

// nextReset is midnight UTC on the first day of the month after t.
func nextReset(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

func (p Policy) fresh() Usage {
	return Usage{
		Plan:     p.Plan,
		Limit:    p.Limit,
		Used:     0,
		ResetsAt: nextReset(p.now()),
	}
}

// roll resets u when its window has passed.
func (p Policy) roll(u Usage) (Usage, bool) {
	now := p.now()
	if now.Before(u.ResetsAt) {
		return u, false
	}
	u.Used = 0
	u.ResetsAt = nextReset(now)
	u.Limit = p.Limit
	return u, true
}
