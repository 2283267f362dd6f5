// Package calendar holds the meeting calendar provider: an in-memory list
// of meetings with working-time rules, conflict detection, and free-slot
// search, projected into agent tools.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// Priority ranks a meeting's importance.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority maps "LOW"/"MEDIUM"/"HIGH" (case-insensitive) to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(s) {
	case "LOW":
		return PriorityLow, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "HIGH":
		return PriorityHigh, nil
	default:
		return 0, errmodel.Validation("invalid_priority", "priority must be LOW, MEDIUM or HIGH", map[string]any{
			"priority": s,
		})
	}
}

// Meeting is one calendar entry.
type Meeting struct {
	ID        int           `json:"id"`
	Topic     string        `json:"topic"`
	Organizer string        `json:"organizer"`
	Duration  time.Duration `json:"-"`
	Start     time.Time     `json:"start_time"`
	Priority  Priority      `json:"-"`
}

// End is the meeting's end time.
func (m Meeting) End() time.Time { return m.Start.Add(m.Duration) }

func (m Meeting) String() string {
	return fmt.Sprintf("Meeting #%d: %q\nOrganizer: %s\nStart: %s, End: %s, Duration: %s\nPriority: %s",
		m.ID, m.Topic, m.Organizer,
		m.Start.Format("2006-01-02 15:04"), m.End().Format("2006-01-02 15:04"),
		m.Duration, m.Priority)
}

// Calendar manages meetings and working-time settings. Safe for concurrent
// readers; the UI inspects state while the agent loop mutates it.
type Calendar struct {
	mu            sync.RWMutex
	meetings      []Meeting
	nextID        int
	workingDays   map[time.Weekday]bool
	workStartHour int
	workEndHour   int
}

// New returns a calendar with Monday–Friday 09:00–18:00 working time.
func New() *Calendar {
	return &Calendar{
		nextID: 1,
		workingDays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		},
		workStartHour: 9,
		workEndHour:   18,
	}
}

// SetWorkingDays replaces the working-day set.
func (c *Calendar) SetWorkingDays(days []time.Weekday) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := map[time.Weekday]bool{}
	for _, d := range days {
		m[d] = true
	}
	c.workingDays = m
}

// SetWorkingHours sets the daily working window. End hour is exclusive.
func (c *Calendar) SetWorkingHours(startHour, endHour int) error {
	if !(0 <= startHour && startHour < endHour && endHour <= 24) {
		return errmodel.Validation("invalid_hours", "working hours must satisfy 0 <= start < end <= 24", map[string]any{
			"start": startHour, "end": endHour,
		})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workStartHour = startHour
	c.workEndHour = endHour
	return nil
}

// WorkingHours reports the configured daily window.
func (c *Calendar) WorkingHours() (startHour, endHour int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.workStartHour, c.workEndHour
}

// IsWorkingTime reports whether t falls on a working day inside working hours.
func (c *Calendar) IsWorkingTime(t time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isWorkingTimeLocked(t)
}

func (c *Calendar) isWorkingTimeLocked(t time.Time) bool {
	if !c.workingDays[t.Weekday()] {
		return false
	}
	return c.workStartHour <= t.Hour() && t.Hour() < c.workEndHour
}

// Add schedules a meeting if the slot is free and returns it. A busy slot
// yields a conflict error; callers query Conflicts and NextFreeSlot for the
// details they present to the model.
func (c *Calendar) Add(topic, organizer string, duration time.Duration, start time.Time, prio Priority) (Meeting, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := start.Add(duration)
	for _, m := range c.meetings {
		if start.Before(m.End()) && m.Start.Before(end) {
			return Meeting{}, errmodel.Validation("conflict", "requested time is already taken", map[string]any{
				"topic": topic,
				"start": start.Format("2006-01-02 15:04"),
			})
		}
	}
	meeting := Meeting{ID: c.nextID, Topic: topic, Organizer: organizer, Duration: duration, Start: start, Priority: prio}
	c.meetings = append(c.meetings, meeting)
	c.nextID++
	return meeting, nil
}

// Remove deletes a meeting by ID, reporting whether it existed.
func (c *Calendar) Remove(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.meetings {
		if m.ID == id {
			c.meetings = append(c.meetings[:i], c.meetings[i+1:]...)
			return true
		}
	}
	return false
}

// Meetings returns all meetings sorted by start time.
func (c *Calendar) Meetings() []Meeting {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Meeting, len(c.meetings))
	copy(out, c.meetings)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Conflicts returns meetings overlapping the [start, start+duration) interval.
func (c *Calendar) Conflicts(start time.Time, duration time.Duration) []Meeting {
	c.mu.RLock()
	defer c.mu.RUnlock()
	end := start.Add(duration)
	var out []Meeting
	for _, m := range c.meetings {
		if start.Before(m.End()) && m.Start.Before(end) {
			out = append(out, m)
		}
	}
	return out
}

// NextFreeSlot finds the earliest free slot of the given duration at or
// after start, respecting working days and hours. A duration that cannot
// fit inside any working day fails up front; without that guard the search
// would advance day by day forever.
func (c *Calendar) NextFreeSlot(start time.Time, duration time.Duration) (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.workingDays) == 0 {
		return time.Time{}, errmodel.Validation("no_working_days", "no working days are configured", nil)
	}
	if window := time.Duration(c.workEndHour-c.workStartHour) * time.Hour; duration > window {
		return time.Time{}, errmodel.Validation("duration_exceeds_window",
			fmt.Sprintf("a meeting of %s does not fit into the %02d:00-%02d:00 working window", duration, c.workStartHour, c.workEndHour),
			map[string]any{
				"duration":        duration.String(),
				"work_start_hour": c.workStartHour,
				"work_end_hour":   c.workEndHour,
			})
	}

	current := start
	if !c.isWorkingTimeLocked(current) {
		current = c.nextWorkingTimeLocked(current)
	}

	sorted := make([]Meeting, len(c.meetings))
	copy(sorted, c.meetings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	if len(sorted) == 0 {
		if current.Hour() < c.workStartHour {
			current = atHour(current, c.workStartHour)
		}
		return current, nil
	}

	for {
		free := true
		potentialEnd := current.Add(duration)
		for _, m := range sorted {
			if current.Before(m.End()) && m.Start.Before(potentialEnd) {
				free = false
				current = m.End()
				if !c.isWorkingTimeLocked(current) {
					current = c.nextWorkingTimeLocked(current)
				}
				break
			}
		}
		if free {
			endOfDay := atHour(current, c.workEndHour)
			if !potentialEnd.After(endOfDay) {
				return current, nil
			}
			current = c.nextWorkingTimeLocked(atHour(current, c.workEndHour))
		}
	}
}

func (c *Calendar) nextWorkingTimeLocked(t time.Time) time.Time {
	current := t
	if current.Hour() >= c.workEndHour {
		current = atHour(current, 0).AddDate(0, 0, 1)
	}
	if current.Hour() < c.workStartHour {
		current = atHour(current, c.workStartHour)
	}
	for !c.workingDays[current.Weekday()] {
		current = atHour(current, c.workStartHour).AddDate(0, 0, 1)
	}
	if current.Hour() < c.workStartHour {
		current = atHour(current, c.workStartHour)
	}
	return current
}

// StateString renders the calendar for display, meetings sorted by start.
func (c *Calendar) StateString() string {
	meetings := c.Meetings()
	if len(meetings) == 0 {
		return "The calendar is empty."
	}
	lines := make([]string, 0, len(meetings))
	for _, m := range meetings {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n\n")
}

func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
