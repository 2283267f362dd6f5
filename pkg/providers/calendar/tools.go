package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/providers"
)

var _ providers.Provider = (*Provider)(nil)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
)

// Provider projects a Calendar into agent tools.
type Provider struct {
	cal *Calendar
	now func() time.Time
}

// NewProvider wraps cal. The clock is time.Now unless overridden.
func NewProvider(cal *Calendar, opts ...ProviderOption) *Provider {
	p := &Provider{cal: cal, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

type ProviderOption func(*Provider)

// WithClock substitutes the time source. Used by tests and replay runs.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

func (p *Provider) Name() string { return "calendar" }

// Calendar exposes the underlying state for UI inspection.
func (p *Provider) Calendar() *Calendar { return p.cal }

func (p *Provider) Tools() []agent.Tool {
	return []agent.Tool{
		addMeetingTool{p.cal},
		removeMeetingTool{p.cal},
		listMeetingsTool{p.cal},
		findFreeSlotTool{p.cal},
		isTimeAvailableTool{p.cal},
		setWorkingDaysTool{p.cal},
		setWorkingHoursTool{p.cal},
		currentDateTool{p.now},
	}
}

// parseStart combines "YYYY-MM-DD" and "HH:MM" arguments.
func parseStart(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, errmodel.Validation("invalid_datetime",
			"date must be 'YYYY-MM-DD' and time must be 'HH:MM'", map[string]any{
				"date": date, "time": clock,
			})
	}
	return t, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg accepts float64 since tool arguments arrive through JSON.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

type addMeetingTool struct{ cal *Calendar }

func (addMeetingTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "add_meeting",
		Description: "Adds a new meeting to the calendar with the given parameters.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "topic": {"type": "string", "description": "Topic/title of the meeting."},
    "organizer": {"type": "string", "description": "Organizer of the meeting."},
    "duration": {"type": "integer", "description": "Meeting duration in minutes."},
    "date": {"type": "string", "description": "Meeting date in 'YYYY-MM-DD' format."},
    "time": {"type": "string", "description": "Meeting start time in 'HH:MM' format."},
    "priority": {"type": "string", "description": "Meeting priority ('LOW', 'MEDIUM' or 'HIGH'). Pick one that fits the meeting's topic and participants. Defaults to 'MEDIUM' when omitted."}
  },
  "required": ["topic", "organizer", "duration", "date", "time"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t addMeetingTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	topic := stringArg(args, "topic")
	organizer := stringArg(args, "organizer")
	minutes, ok := intArg(args, "duration")
	if !ok || minutes <= 0 {
		return nil, errmodel.Validation("invalid_duration", "duration must be a positive number of minutes", nil)
	}
	start, err := parseStart(stringArg(args, "date"), stringArg(args, "time"))
	if err != nil {
		return nil, err
	}
	prio := PriorityMedium
	if raw := stringArg(args, "priority"); raw != "" {
		if prio, err = ParsePriority(raw); err != nil {
			return nil, err
		}
	}

	duration := time.Duration(minutes) * time.Minute
	meeting, err := t.cal.Add(topic, organizer, duration, start, prio)
	if err != nil {
		conflicts := t.cal.Conflicts(start, duration)
		topics := make([]string, 0, len(conflicts))
		for _, m := range conflicts {
			topics = append(topics, m.Topic)
		}
		next, nerr := t.cal.NextFreeSlot(start, duration)
		if nerr != nil {
			return nil, nerr
		}
		msg := fmt.Sprintf("Could not add the meeting at the requested time due to conflict(s). Conflicting meetings: %s. Nearest free slot: %s.",
			strings.Join(topics, ", "), next.Format(dateTimeLayout))
		return nil, errmodel.Tool("slot_taken", msg, map[string]any{
			"conflicting_meetings": strings.Join(topics, ", "),
			"next_free_slot":       next.Format(dateTimeLayout),
		}, err)
	}
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Meeting %q added successfully", topic),
		"data":    map[string]any{"id": meeting.ID},
	}, nil
}

type removeMeetingTool struct{ cal *Calendar }

func (removeMeetingTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "remove_meeting",
		Description: "Removes a meeting from the calendar by its ID.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "meeting_id": {"type": "integer", "description": "ID of the meeting to remove."}
  },
  "required": ["meeting_id"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t removeMeetingTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	id, ok := intArg(args, "meeting_id")
	if !ok {
		return nil, errmodel.Validation("invalid_id", "meeting_id must be an integer", nil)
	}
	if t.cal.Remove(id) {
		return map[string]any{
			"success": true,
			"message": fmt.Sprintf("Meeting %d removed successfully", id),
		}, nil
	}
	return map[string]any{
		"success": false,
		"message": fmt.Sprintf("Meeting %d not found", id),
	}, nil
}

type listMeetingsTool struct{ cal *Calendar }

func (listMeetingsTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "list_meetings",
		Description: "Lists all meetings in the calendar.",
		InputSchema: []byte(`{"type": "object", "properties": {}, "additionalProperties": false}`),
		OutputType:  "string",
	}
}

func (t listMeetingsTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"meetings": t.cal.StateString()}, nil
}

type findFreeSlotTool struct{ cal *Calendar }

func (findFreeSlotTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "find_free_slot",
		Description: "Finds the nearest available free time slot for a meeting.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "duration": {"type": "integer", "description": "Required meeting duration in minutes."},
    "date": {"type": "string", "description": "Date to start searching from, in 'YYYY-MM-DD' format."},
    "time": {"type": "string", "description": "Time to start searching from, in 'HH:MM' format. Optional; when omitted the search starts at the beginning of the working day."}
  },
  "required": ["duration", "date"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t findFreeSlotTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	minutes, ok := intArg(args, "duration")
	if !ok || minutes <= 0 {
		return nil, errmodel.Validation("invalid_duration", "duration must be a positive number of minutes", nil)
	}
	date := stringArg(args, "date")
	var start time.Time
	var err error
	if clock := stringArg(args, "time"); clock != "" {
		start, err = parseStart(date, clock)
	} else {
		start, err = time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			err = errmodel.Validation("invalid_datetime", "date must be 'YYYY-MM-DD'", map[string]any{"date": date})
		}
	}
	if err != nil {
		return nil, err
	}
	next, err := t.cal.NextFreeSlot(start, time.Duration(minutes)*time.Minute)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Nearest free slot found: %s", next.Format(dateTimeLayout)),
		"data":    map[string]any{"next_available_slot": next.Format(time.RFC3339)},
	}, nil
}

type isTimeAvailableTool struct{ cal *Calendar }

func (isTimeAvailableTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "is_time_available",
		Description: "Checks whether a specific time slot is available for a meeting.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "duration": {"type": "integer", "description": "Meeting duration in minutes to check."},
    "date": {"type": "string", "description": "Date to check, in 'YYYY-MM-DD' format."},
    "time": {"type": "string", "description": "Start time to check, in 'HH:MM' format."}
  },
  "required": ["duration", "date", "time"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t isTimeAvailableTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	minutes, ok := intArg(args, "duration")
	if !ok || minutes <= 0 {
		return nil, errmodel.Validation("invalid_duration", "duration must be a positive number of minutes", nil)
	}
	start, err := parseStart(stringArg(args, "date"), stringArg(args, "time"))
	if err != nil {
		return nil, err
	}
	duration := time.Duration(minutes) * time.Minute
	end := start.Add(duration)

	_, endHour := t.cal.WorkingHours()
	endOfDay := atHour(start, endHour)
	withinWorking := t.cal.IsWorkingTime(start) &&
		start.Year() == end.Year() && start.YearDay() == end.YearDay() &&
		!end.After(endOfDay)

	conflicts := t.cal.Conflicts(start, duration)
	free := len(conflicts) == 0
	available := withinWorking && free

	msg := fmt.Sprintf("Time slot from %s to %s ", start.Format(timeLayout), end.Format(timeLayout))
	if available {
		msg += "is available."
	} else {
		msg += "is not available."
		var reasons []string
		if !withinWorking {
			reasons = append(reasons, "outside working hours")
		}
		if !free {
			topics := make([]string, 0, len(conflicts))
			for _, m := range conflicts {
				topics = append(topics, m.Topic)
			}
			reasons = append(reasons, "conflicts with meetings: "+strings.Join(topics, ", "))
		}
		msg += " Reasons: " + strings.Join(reasons, "; ") + "."
	}

	conflictData := make([]map[string]any, 0, len(conflicts))
	for _, m := range conflicts {
		conflictData = append(conflictData, map[string]any{
			"id": m.ID, "topic": m.Topic,
			"start": m.Start.Format(time.RFC3339), "end": m.End().Format(time.RFC3339),
			"priority": m.Priority.String(),
		})
	}
	return map[string]any{
		"success": available,
		"message": msg,
		"data": map[string]any{
			"available":             available,
			"is_working_time":       withinWorking,
			"is_free_from_meetings": free,
			"conflicting_meetings":  conflictData,
		},
	}, nil
}

// weekdayNames follows the tool contract: index 0 is Monday.
var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// mondayBased converts a 0=Monday index to time.Weekday (0=Sunday).
func mondayBased(d int) time.Weekday {
	return time.Weekday((d + 1) % 7)
}

type setWorkingDaysTool struct{ cal *Calendar }

func (setWorkingDaysTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "set_working_days",
		Description: "Sets which days of the week are working days.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "working_days": {
      "type": "array",
      "items": {"type": "integer"},
      "description": "List of working days as integers (0=Monday, 6=Sunday)."
    }
  },
  "required": ["working_days"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t setWorkingDaysTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	raw, ok := args["working_days"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errmodel.Validation("invalid_days", "'working_days' must be a non-empty list of integers from 0 to 6", nil)
	}
	seen := map[int]bool{}
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok || f != float64(int(f)) || int(f) < 0 || int(f) > 6 {
			return nil, errmodel.Validation("invalid_days", "'working_days' must be a list of integers from 0 to 6", nil)
		}
		seen[int(f)] = true
	}
	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)

	weekdays := make([]time.Weekday, 0, len(days))
	names := make([]string, 0, len(days))
	for _, d := range days {
		weekdays = append(weekdays, mondayBased(d))
		names = append(names, weekdayNames[d])
	}
	t.cal.SetWorkingDays(weekdays)
	return map[string]any{
		"success": true,
		"message": "Working days set: " + strings.Join(names, ", "),
		"data":    map[string]any{"working_days": days},
	}, nil
}

type setWorkingHoursTool struct{ cal *Calendar }

func (setWorkingHoursTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "set_working_hours",
		Description: "Sets the working hours for each working day.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "work_start_hour": {"type": "integer", "description": "Hour the working day starts (0-23)."},
    "work_end_hour": {"type": "integer", "description": "Hour the working day ends (1-24). The end hour is exclusive (18 means until 17:59)."}
  },
  "required": ["work_start_hour", "work_end_hour"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t setWorkingHoursTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	start, ok1 := intArg(args, "work_start_hour")
	end, ok2 := intArg(args, "work_end_hour")
	if !ok1 || !ok2 {
		return nil, errmodel.Validation("invalid_hours", "hours must be integers", nil)
	}
	if err := t.cal.SetWorkingHours(start, end); err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Working hours set from %d:00 to %d:00", start, end),
		"data":    map[string]any{"work_start_hour": start, "work_end_hour": end},
	}, nil
}

type currentDateTool struct {
	now func() time.Time
}

func (currentDateTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "get_current_date",
		Description: "Returns the current date in 'YYYY-MM-DD' format.",
		InputSchema: []byte(`{"type": "object", "properties": {}, "additionalProperties": false}`),
		OutputType:  "string",
	}
}

func (t currentDateTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"date": t.now().Format(dateLayout)}, nil
}
