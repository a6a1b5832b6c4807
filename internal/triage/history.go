package triage

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"triage-backend/internal/models"
)

// Stats is the aggregate view served to the statistics role.
type Stats struct {
	Count          int                        `json:"count"`
	ByLevel        map[models.TriageLevel]int `json:"by_level"`
	AvgWaitMinutes int                        `json:"avg_wait_minutes"`
}

// handleSearchHistory answers a free-text archive search. Registrars get
// the results with physician comments stripped: a confidentiality
// boundary, not an authorization failure.
func (c *Core) handleSearchHistory(sess *Session, data json.RawMessage) {
	if !sess.authenticated {
		return
	}

	var in searchInput
	if err := json.Unmarshal(data, &in); err != nil || in.Query == "" {
		return
	}

	sess.emit("history_results", c.searchArchive(in.Query, sess.role))
}

// searchArchive matches name or national id case-insensitively, newest
// attended first.
func (c *Core) searchArchive(query string, role models.Role) []models.Patient {
	q := strings.ToLower(query)

	results := []models.Patient{}
	for _, p := range c.history {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.NationalID), q) {
			if role == models.RoleRegistrar {
				p.Comments = []models.Note{}
			}
			results = append(results, p)
		}
	}

	sortByAttendedDesc(results)
	return results
}

// handleGetHistory serves the role-scoped history window:
// registrar = own registrations in the current shift, physician = own
// attended in the current guard, stats = everything this week, admin =
// the whole archive.
func (c *Core) handleGetHistory(sess *Session) {
	if !sess.authenticated {
		return
	}

	now := c.now()
	results := []models.Patient{}

	switch sess.role {
	case models.RoleRegistrar:
		shift := shiftFor(now)
		windowStart := shiftWindowStart(now)
		for _, p := range c.history {
			if p.RegisteredBy == sess.username && p.Shift == shift && !p.ArrivalAt.Before(windowStart) {
				p.Comments = []models.Note{}
				results = append(results, p)
			}
		}
	case models.RolePhysician:
		guardStart := guardStartFor(now)
		for _, p := range c.history {
			if p.Physician == sess.username && p.AttendedAt != nil && !p.AttendedAt.Before(guardStart) {
				results = append(results, p)
			}
		}
	case models.RoleStats:
		weekStart := weekStartFor(now)
		for _, p := range c.history {
			if p.AttendedAt != nil && !p.AttendedAt.Before(weekStart) {
				results = append(results, p)
			}
		}
	case models.RoleAdmin:
		results = append(results, c.history...)
	}

	sortByAttendedDesc(results)
	sess.emit("my_history", results)
}

// handleGetStats answers the statistics request. Other roles get nothing,
// not even an error.
func (c *Core) handleGetStats(sess *Session) {
	if !sess.hasRole(models.RoleStats) {
		return
	}
	sess.emit("stats_result", c.statistics())
}

// statistics aggregates over everyone who arrived since local midnight.
// Mean wait only counts archived patients, the only ones with an attended
// timestamp.
func (c *Core) statistics() Stats {
	dayStart := dayStartFor(c.now())

	stats := Stats{ByLevel: map[models.TriageLevel]int{}}
	var totalWait time.Duration
	var attended int

	for _, p := range c.queue {
		if p.ArrivalAt.Before(dayStart) {
			continue
		}
		stats.Count++
		stats.ByLevel[p.Level]++
	}
	for _, p := range c.history {
		if p.ArrivalAt.Before(dayStart) {
			continue
		}
		stats.Count++
		stats.ByLevel[p.Level]++
		if p.AttendedAt != nil {
			totalWait += p.AttendedAt.Sub(p.ArrivalAt)
			attended++
		}
	}

	if attended > 0 {
		stats.AvgWaitMinutes = int(math.Round(totalWait.Minutes() / float64(attended)))
	}
	return stats
}

func sortByAttendedDesc(patients []models.Patient) {
	sort.Slice(patients, func(i, j int) bool {
		a, b := patients[i].AttendedAt, patients[j].AttendedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// guardStartFor returns the start of the current guard window. Guards run
// 08:00 to 08:00, so anything before 08:00 belongs to yesterday's guard.
func guardStartFor(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), 8, 0, 0, 0, t.Location())
	if t.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// guardDayFor labels an attended time with its guard day.
func guardDayFor(t time.Time) string {
	return guardStartFor(t).Format("2006-01-02")
}

// shiftWindowStart returns when the shift band containing t began.
func shiftWindowStart(t time.Time) time.Time {
	h := t.Hour()
	switch {
	case h >= 6 && h < 14:
		return time.Date(t.Year(), t.Month(), t.Day(), 6, 0, 0, 0, t.Location())
	case h >= 14 && h < 22:
		return time.Date(t.Year(), t.Month(), t.Day(), 14, 0, 0, 0, t.Location())
	case h >= 22:
		return time.Date(t.Year(), t.Month(), t.Day(), 22, 0, 0, 0, t.Location())
	default:
		// Small hours belong to the night shift that started yesterday.
		return time.Date(t.Year(), t.Month(), t.Day(), 22, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
	}
}

// weekStartFor returns Monday 00:00 of t's week.
func weekStartFor(t time.Time) time.Time {
	daysBack := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -daysBack)
}

func dayStartFor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
