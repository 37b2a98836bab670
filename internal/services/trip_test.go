package services

import (
	"context"
	"testing"
)

func TestCreateTripFansOutToEveryMember(t *testing.T) {
	env := newTestEnv("owner", "m1", "m2")
	ctx := context.Background()

	trip, err := env.tripSvc.CreateTrip(ctx, "owner", "Summer", "two weeks", []string{"m1", "m2", "m1", "owner"})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if len(trip.ReducedTrip.Users) != 3 {
		t.Fatalf("expected 3 deduplicated members, got %d", len(trip.ReducedTrip.Users))
	}

	for _, memberID := range []string{"owner", "m1", "m2"} {
		rows, err := env.trips.ListByUser(ctx, memberID, nil, nil, "", 0)
		if err != nil {
			t.Fatalf("ListByUser(%s): %v", memberID, err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected one trips_by_user row for %s, got %d", memberID, len(rows))
		}
		if rows[0].TripID != trip.ReducedTrip.ID {
			t.Errorf("row for %s points at trip %s", memberID, rows[0].TripID)
		}
		if rows[0].Name != "Summer" {
			t.Errorf("row for %s has name %q", memberID, rows[0].Name)
		}
	}
}

func TestUpdateTripMembershipDiff(t *testing.T) {
	env := newTestEnv("owner", "m1", "m2")
	ctx := context.Background()

	created, err := env.tripSvc.CreateTrip(ctx, "owner", "Summer", "", []string{"m1"})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	tripID := created.ReducedTrip.ID
	createTime := created.ReducedTrip.CreateTime

	name := "Autumn"
	members := []string{"m2"}
	if _, err := env.tripSvc.UpdateTrip(ctx, tripID, TripUpdate{Name: &name, UserIDs: &members}); err != nil {
		t.Fatalf("UpdateTrip: %v", err)
	}

	// Removed member loses its row.
	rows, err := env.trips.ListByUser(ctx, "m1", nil, nil, "", 0)
	if err != nil {
		t.Fatalf("ListByUser(m1): %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected removed member row to be gone, got %d rows", len(rows))
	}

	// Added member gets a row with the updated attributes.
	rows, err = env.trips.ListByUser(ctx, "m2", nil, nil, "", 0)
	if err != nil {
		t.Fatalf("ListByUser(m2): %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Autumn" {
		t.Fatalf("expected one updated row for added member, got %+v", rows)
	}

	// The remaining member's row is rewritten in place under its original
	// (user_id, create_time, trip_id) identity.
	row, err := env.trips.GetForUser(ctx, "owner", tripID, createTime)
	if err != nil {
		t.Fatalf("GetForUser(owner): %v", err)
	}
	if row == nil {
		t.Fatal("expected owner's row to keep its key identity")
	}
	if row.Name != "Autumn" {
		t.Errorf("owner row not updated, name=%q", row.Name)
	}
}

func TestUpdateTripPartialMerge(t *testing.T) {
	env := newTestEnv("owner")
	ctx := context.Background()

	created, err := env.tripSvc.CreateTrip(ctx, "owner", "Summer", "two weeks", nil)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	begin := int64(42)
	updated, err := env.tripSvc.UpdateTrip(ctx, created.ReducedTrip.ID, TripUpdate{BeginTime: &begin})
	if err != nil {
		t.Fatalf("UpdateTrip: %v", err)
	}
	if updated.ReducedTrip.BeginTime != 42 {
		t.Errorf("beginTime not applied: %d", updated.ReducedTrip.BeginTime)
	}
	if updated.ReducedTrip.Name != "Summer" || updated.ReducedTrip.Description != "two weeks" {
		t.Errorf("untouched fields must survive a partial update: %+v", updated.ReducedTrip)
	}
}

func TestGetTripUsersSorted(t *testing.T) {
	env := newTestEnv("owner", "m1", "m2")
	ctx := context.Background()

	created, err := env.tripSvc.CreateTrip(ctx, "owner", "Summer", "", []string{"m2", "m1"})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}

	nb := 2
	users, err := env.tripSvc.GetTripUsers(ctx, created.ReducedTrip.ID, "createTime", &nb, 0)
	if err != nil {
		t.Fatalf("GetTripUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected bounded page of 2, got %d", len(users))
	}
	if users[0].ID != "owner" || users[1].ID != "m1" {
		t.Errorf("unexpected order: %s, %s", users[0].ID, users[1].ID)
	}
}
