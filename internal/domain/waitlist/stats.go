package waitlist

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLongWaitDays is the wait beyond which an open case counts as a long wait.
const DefaultLongWaitDays = 30

// Stats summarizes the worklist for the dashboard tiles.
type Stats struct {
	Total       int `json:"total"`
	Waiting     int `json:"waiting"`
	Urgent      int `json:"urgent"`
	Scheduled   int `json:"scheduled"`
	Completed   int `json:"completed"`
	AvgWaitDays int `json:"avg_wait_days"`
	LongWait    int `json:"long_wait"`
}

// ComputeStats counts patients per tile. Urgent and long-wait counts exclude
// completed cases. The average wait is rounded half up and is 0 for an empty
// list.
func ComputeStats(patients []*Patient, now time.Time, longWaitDays int) Stats {
	s := Stats{Total: len(patients)}
	var sum int64
	for _, p := range patients {
		wait := WaitDays(p.AddedDate, now)
		sum += int64(wait)
		switch p.Status {
		case StatusWaiting:
			s.Waiting++
		case StatusScheduled:
			s.Scheduled++
		case StatusCompleted:
			s.Completed++
		}
		if p.Status == StatusCompleted {
			continue
		}
		if p.Urgency == UrgencyUrgent {
			s.Urgent++
		}
		if wait > longWaitDays {
			s.LongWait++
		}
	}
	if len(patients) > 0 {
		avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(patients))))
		s.AvgWaitDays = int(avg.Round(0).IntPart())
	}
	return s
}

// UniqueSurgeons returns the distinct non-empty surgeon names in first-seen order.
func UniqueSurgeons(patients []*Patient) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range patients {
		name := p.SurgeonName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
