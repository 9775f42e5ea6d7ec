package main

import (
	"testing"
)

func TestLeaveRoomNotifiesPartnerAndKeepsRoom(t *testing.T) {
	hub, presence := newTestHub()
	a, b, roomID := matchPair(hub)

	presence.LeaveRoom(a, "req-1", roomID)

	events := b.PresEvents()
	if len(events) != 1 || events[0] != PresPartnerLeft {
		t.Errorf("partner should receive partner-left, got %v", events)
	}

	// The room lingers with one member until B also leaves.
	if hub.RoomCount() != 1 {
		t.Errorf("room should linger with one member, got %d rooms", hub.RoomCount())
	}

	viewA, _ := hub.GetSession(a.ID())
	if viewA.State != StateIdle || viewA.RoomID != "" {
		t.Error("leaver should be idle with no room")
	}
	viewB, _ := hub.GetSession(b.ID())
	if viewB.State != StateInRoom || viewB.RoomID != roomID {
		t.Error("remaining member should keep the room")
	}

	// Leaver is acknowledged.
	last := a.LastMessage()
	if last == nil || last.Ctrl == nil || last.Ctrl.Text != "left room" {
		t.Errorf("leaver should be acked with left room, got %+v", last)
	}

	// Once the remaining member leaves too, the room is destroyed.
	presence.LeaveRoom(b, "req-2", roomID)
	if hub.RoomCount() != 0 {
		t.Errorf("room should be destroyed when emptied, got %d", hub.RoomCount())
	}
}

func TestLeaveRoomStaleIsIdempotent(t *testing.T) {
	hub, presence := newTestHub()
	a, b, roomID := matchPair(hub)

	presence.LeaveRoom(a, "req-1", roomID)
	before := b.MessageCount()

	// A is no longer in the room; a repeat leave must not touch B.
	presence.LeaveRoom(a, "req-2", roomID)

	if b.MessageCount() != before {
		t.Error("repeat leave must not notify the partner again")
	}
	// But the leaver still gets an acknowledgement.
	last := a.LastMessage()
	if last == nil || last.Ctrl == nil || last.Ctrl.Text != "left room" {
		t.Error("stale leave should still be acked")
	}
}

func TestConfirmLeaveForcesTeardown(t *testing.T) {
	hub, presence := newTestHub()
	a, b, roomID := matchPair(hub)

	presence.ConfirmLeave(a, roomID)

	for _, sess := range []*testSession{a, b} {
		events := sess.PresEvents()
		if len(events) != 1 || events[0] != PresForceLeave {
			t.Errorf("both members should receive force-leave, got %v", events)
		}
		view, _ := hub.GetSession(sess.ID())
		if view.State != StateIdle || view.RoomID != "" {
			t.Error("members should be idle after forced teardown")
		}
	}
	if hub.RoomCount() != 0 {
		t.Errorf("room should be destroyed, got %d", hub.RoomCount())
	}
}

func TestConfirmLeaveAfterPartnerLeft(t *testing.T) {
	hub, presence := newTestHub()
	a, b, roomID := matchPair(hub)

	// A leaves normally; the room lingers with B alone. B then forces
	// the teardown, which wins over the lingering state.
	presence.LeaveRoom(a, "req-1", roomID)
	presence.ConfirmLeave(b, roomID)

	events := b.PresEvents()
	if len(events) != 2 || events[1] != PresForceLeave {
		t.Errorf("remaining member should receive force-leave, got %v", events)
	}
	if hub.RoomCount() != 0 {
		t.Errorf("room should be destroyed, got %d", hub.RoomCount())
	}
}

func TestConfirmLeaveStaleRoom(t *testing.T) {
	hub, presence := newTestHub()
	a := connect(hub)

	presence.ConfirmLeave(a, "long-gone")

	events := a.PresEvents()
	if len(events) != 1 || events[0] != PresForceLeave {
		t.Errorf("requester should still receive force-leave, got %v", events)
	}
}

func TestConfirmLeaveFromNonMember(t *testing.T) {
	hub, presence := newTestHub()
	a, b, roomID := matchPair(hub)
	outsider := connect(hub)

	presence.ConfirmLeave(outsider, roomID)

	if len(a.PresEvents()) != 0 || len(b.PresEvents()) != 0 {
		t.Error("an outsider must not tear down a foreign room")
	}
	if hub.RoomCount() != 1 {
		t.Errorf("room should survive, got %d", hub.RoomCount())
	}
}

func TestDisconnectInRoomDestroysRoom(t *testing.T) {
	hub, presence := newTestHub()
	a, b, roomID := matchPair(hub)

	presence.Disconnect(a)

	events := b.PresEvents()
	if len(events) != 1 || events[0] != PresPartnerDisconnected {
		t.Errorf("partner should receive partner-disconnected, got %v", events)
	}
	if hub.RoomCount() != 0 {
		t.Errorf("room should be destroyed on disconnect, got %d", hub.RoomCount())
	}

	viewB, _ := hub.GetSession(b.ID())
	if viewB.State != StateIdle || viewB.RoomID != "" {
		t.Error("partner should return to idle")
	}
	if _, ok := hub.GetSession(a.ID()); ok {
		t.Error("disconnected session record should be deleted")
	}

	// A later leave for the dead session is a no-op beyond its ack.
	before := b.MessageCount()
	presence.LeaveRoom(a, "req-1", roomID)
	if b.MessageCount() != before {
		t.Error("leave after disconnect must not affect the partner")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	hub, presence := newTestHub()
	a, b, _ := matchPair(hub)

	presence.Disconnect(a)
	before := b.MessageCount()

	presence.Disconnect(a)

	if b.MessageCount() != before {
		t.Error("second disconnect must have no additional effect")
	}
	if hub.SessionCount() != 1 {
		t.Errorf("expected only b registered, got %d", hub.SessionCount())
	}
}

func TestDisconnectQueuedSession(t *testing.T) {
	hub, presence := newTestHub()
	a := connect(hub)
	b := connect(hub)

	hub.StartQueuing(a, "music")
	presence.Disconnect(a)

	if hub.QueuedCount() != 0 {
		t.Errorf("queue should be empty after disconnect, got %d", hub.QueuedCount())
	}

	// B enqueues with the same interest and must not match the dead entry.
	hub.StartQueuing(b, "music")
	if b.MatchedRoom() != "" {
		t.Error("b should not match a disconnected session")
	}
}

func TestDisconnectIdleSession(t *testing.T) {
	hub, presence := newTestHub()
	a := connect(hub)

	presence.Disconnect(a)

	if hub.SessionCount() != 0 {
		t.Errorf("registry should be empty, got %d", hub.SessionCount())
	}
}
