package models

import (
	"encoding/json"
	"time"
)

// LogisticsUpdate is one immutable entry in an order's timeline.
type LogisticsUpdate struct {
	Status      OrderStatus `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description"`
}

// Timeline is an append-only sequence of logistics updates. The zero value is
// an empty timeline. Append never touches the receiver's backing array, so a
// copied Timeline can never observe entries appended to another copy.
type Timeline struct {
	updates []LogisticsUpdate
}

// RestoreTimeline rebuilds a timeline from persisted entries, keeping their
// stored order.
func RestoreTimeline(updates []LogisticsUpdate) Timeline {
	t := Timeline{}
	for _, u := range updates {
		t = t.Append(u.Status, u.Timestamp, u.Description)
	}
	return t
}

// Append returns a new timeline with one more entry. Timestamps are kept at
// millisecond precision and strictly increasing: an entry that would not sort
// after the previous one is moved to one millisecond past it.
func (t Timeline) Append(status OrderStatus, at time.Time, description string) Timeline {
	at = at.UTC().Truncate(time.Millisecond)
	if last, ok := t.Last(); ok && !at.After(last.Timestamp) {
		at = last.Timestamp.Add(time.Millisecond)
	}

	next := make([]LogisticsUpdate, len(t.updates), len(t.updates)+1)
	copy(next, t.updates)
	next = append(next, LogisticsUpdate{
		Status:      status,
		Timestamp:   at,
		Description: description,
	})
	return Timeline{updates: next}
}

func (t Timeline) Len() int {
	return len(t.updates)
}

// Updates returns a copy of the entries in append order.
func (t Timeline) Updates() []LogisticsUpdate {
	out := make([]LogisticsUpdate, len(t.updates))
	copy(out, t.updates)
	return out
}

func (t Timeline) Last() (LogisticsUpdate, bool) {
	if len(t.updates) == 0 {
		return LogisticsUpdate{}, false
	}
	return t.updates[len(t.updates)-1], true
}

// Find returns the first entry recorded for status.
func (t Timeline) Find(status OrderStatus) (LogisticsUpdate, bool) {
	for _, u := range t.updates {
		if u.Status == status {
			return u, true
		}
	}
	return LogisticsUpdate{}, false
}

// Recent returns up to n entries, newest first.
func (t Timeline) Recent(n int) []LogisticsUpdate {
	if n > len(t.updates) {
		n = len(t.updates)
	}
	out := make([]LogisticsUpdate, 0, n)
	for i := len(t.updates) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, t.updates[i])
	}
	return out
}

type timelineJSON struct {
	Status  OrderStatus       `json:"status,omitempty"`
	Updates []LogisticsUpdate `json:"updates"`
}

func (t Timeline) MarshalJSON() ([]byte, error) {
	doc := timelineJSON{Updates: t.Updates()}
	if last, ok := t.Last(); ok {
		doc.Status = last.Status
	}
	return json.Marshal(doc)
}

func (t *Timeline) UnmarshalJSON(data []byte) error {
	var doc timelineJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*t = RestoreTimeline(doc.Updates)
	return nil
}
