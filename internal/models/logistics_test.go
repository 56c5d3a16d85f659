package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimelineAppendKeepsTimestampsStrictlyIncreasing(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tl := Timeline{}.
		Append(StatusConfirmed, at, "confirmed").
		Append(StatusProcessing, at, "same instant").
		Append(StatusOutForDelivery, at.Add(-time.Hour), "clock went backwards")

	updates := tl.Updates()
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
	for i := 1; i < len(updates); i++ {
		if !updates[i].Timestamp.After(updates[i-1].Timestamp) {
			t.Fatalf("update %d timestamp %v not after %v", i, updates[i].Timestamp, updates[i-1].Timestamp)
		}
	}
	if updates[2].Status != StatusOutForDelivery {
		t.Fatalf("expected append order preserved, got %s last", updates[2].Status)
	}
}

func TestTimelineAppendDoesNotAffectEarlierCopies(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	base := Timeline{}.Append(StatusConfirmed, at, "confirmed")

	a := base.Append(StatusProcessing, at.Add(time.Minute), "a")
	b := base.Append(StatusCancelled, at.Add(time.Minute), "b")

	if base.Len() != 1 {
		t.Fatalf("base timeline mutated: len=%d", base.Len())
	}
	if last, _ := a.Last(); last.Status != StatusProcessing {
		t.Fatalf("expected a to end with Processing, got %s", last.Status)
	}
	if last, _ := b.Last(); last.Status != StatusCancelled {
		t.Fatalf("expected b to end with Cancelled, got %s", last.Status)
	}
}

func TestTimelineUpdatesReturnsCopy(t *testing.T) {
	tl := Timeline{}.Append(StatusConfirmed, time.Now(), "confirmed")
	updates := tl.Updates()
	updates[0].Description = "edited"

	if first, _ := tl.Find(StatusConfirmed); first.Description != "confirmed" {
		t.Fatalf("timeline entry was mutated through Updates(): %q", first.Description)
	}
}

func TestTimelineRecentNewestFirst(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tl := Timeline{}.
		Append(StatusConfirmed, at, "1").
		Append(StatusProcessing, at.Add(time.Minute), "2").
		Append(StatusOutForDelivery, at.Add(2*time.Minute), "3").
		Append(StatusDelivered, at.Add(3*time.Minute), "4")

	recent := tl.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent updates, got %d", len(recent))
	}
	if recent[0].Status != StatusDelivered || recent[2].Status != StatusProcessing {
		t.Fatalf("unexpected recent order: %+v", recent)
	}
}

func TestTimelineJSONRoundTripKeepsOrderAndStatus(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tl := Timeline{}.
		Append(StatusConfirmed, at, "confirmed").
		Append(StatusProcessing, at.Add(time.Minute), "processing")

	body, err := json.Marshal(tl)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("unmarshal status failed: %v", err)
	}
	if doc.Status != string(StatusProcessing) {
		t.Fatalf("expected current status Processing, got %q", doc.Status)
	}

	var restored Timeline
	if err := json.Unmarshal(body, &restored); err != nil {
		t.Fatalf("unmarshal timeline failed: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 updates, got %d", restored.Len())
	}
	if first, _ := restored.Find(StatusConfirmed); !first.Timestamp.Equal(at) {
		t.Fatalf("expected first timestamp %v, got %v", at, first.Timestamp)
	}
}

func TestRoleUnmarshalRejectsUnknownRole(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":"u1","role":"superuser"}`), &u); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if err := json.Unmarshal([]byte(`{"id":"u1","role":"Farmer"}`), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != RoleFarmer {
		t.Fatalf("expected farmer role, got %q", u.Role)
	}
}

func TestMissingDeliveryFields(t *testing.T) {
	u := User{Phone: "9876543210", DeliveryAddress: DeliveryAddress{Address: "1 Farm Rd", City: "Pune"}}
	missing := u.MissingDeliveryFields()
	if len(missing) != 2 || missing[0] != "state" || missing[1] != "zipCode" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}
