package poller

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule is the standard retry interval between polls.
const DefaultSchedule = "600s"

// Schedule decides when the next poll happens.
//
// Supported forms:
//   - Interval duration: "600s", "10m", "1h30m"
//   - Cron (crontab.guru-style): "*/10 * * * *", "@hourly"
//
// Optional prefixes "cron:" and "every:" force one interpretation.
type Schedule struct {
	every time.Duration
	cron  cron.Schedule

	// Source is "duration" or "cron", for logging.
	Source string
}

// ParseSchedule parses a schedule string. Empty input means DefaultSchedule.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		s = DefaultSchedule
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "every:"):
		return parseEvery(strings.TrimSpace(s[len("every:"):]))
	}

	// Heuristic: whitespace or a leading '@' means cron.
	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		return parseCron(s)
	}
	if sched, err := parseEvery(s); err == nil {
		return sched, nil
	}
	return Schedule{}, fmt.Errorf(
		"invalid schedule %q (use a duration like '10m' or cron like '*/10 * * * *')", raw)
}

// Next returns the time of the poll after now.
func (s Schedule) Next(now time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(now)
	}
	return now.Add(s.every)
}

// Interval estimates the spacing between polls, used to size watchdog
// staleness thresholds.
func (s Schedule) Interval(now time.Time) time.Duration {
	if s.cron != nil {
		first := s.cron.Next(now)
		return s.cron.Next(first).Sub(first)
	}
	return s.every
}

func parseCron(expr string) (Schedule, error) {
	if expr == "" {
		return Schedule{}, fmt.Errorf("cron schedule required")
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return Schedule{cron: sched, Source: "cron"}, nil
}

func parseEvery(v string) (Schedule, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid interval %q (use a Go duration like '600s' or '10m')", v)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("interval must be > 0")
	}
	return Schedule{every: d, Source: "duration"}, nil
}
