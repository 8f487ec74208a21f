package resolve

import (
	"fmt"
	"math"
	"time"
)

// Progress is a snapshot of a resolution run.
type Progress struct {
	// Resolved is how many stubs finished, whatever their outcome.
	Resolved int
	// Failed is how many of the resolved stubs failed.
	Failed int
	// Total is how many distinct stub ids have been registered.
	Total int
	// Declared is the sum of the counts the stubs announced.
	Declared int64
	// Nodes is the decoded-node counter.
	Nodes   int64
	Elapsed time.Duration
}

// Percent returns Resolved/Total as a percentage.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Resolved) / float64(p.Total) * 100
}

// ETA estimates the remaining time from the rate so far:
// Total / (Resolved / elapsed) - elapsed. It is zero until a rate exists.
func (p Progress) ETA() time.Duration {
	secs := p.Elapsed.Seconds()
	if p.Resolved <= 0 || secs <= 0 {
		return 0
	}
	rate := float64(p.Resolved) / secs
	eta := float64(p.Total)/rate - secs
	if eta <= 0 || math.IsInf(eta, 0) || math.IsNaN(eta) {
		return 0
	}
	return time.Duration(eta * float64(time.Second))
}

func (p Progress) String() string {
	return fmt.Sprintf("%d / %d %.2f%% runtime: %s ETA: %s",
		p.Resolved, p.Total, p.Percent(), FormatDuration(p.Elapsed), FormatDuration(p.ETA()))
}

// FormatDuration renders d as "Xh Ymin Z.ZZs", dropping leading zero
// units. Zero or negative durations render empty.
func FormatDuration(d time.Duration) string {
	t := d.Seconds()
	switch {
	case t <= 0:
		return ""
	case t < 60:
		return fmt.Sprintf("%.2fs", t)
	case t < 3600:
		return trimJoin(fmt.Sprintf("%.0fmin", math.Floor(t/60)), FormatDuration(secondsDuration(math.Mod(t, 60))))
	default:
		return trimJoin(fmt.Sprintf("%.0fh", math.Floor(t/3600)), FormatDuration(secondsDuration(math.Mod(t, 3600))))
	}
}

func secondsDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func trimJoin(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}
