package domain

import "testing"

func TestReservationTransitions(t *testing.T) {
	cases := []struct {
		from ReservationStatus
		to   ReservationStatus
		ok   bool
	}{
		{ReservationPending, ReservationConfirmed, true},
		{ReservationPending, ReservationCancelled, true},
		{ReservationPending, ReservationCompleted, false},
		{ReservationConfirmed, ReservationCompleted, true},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationConfirmed, ReservationPending, false},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationCompleted, ReservationCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestReservationTerminal(t *testing.T) {
	for _, s := range []ReservationStatus{ReservationCancelled, ReservationCompleted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []ReservationStatus{ReservationPending, ReservationConfirmed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestHoldTransitions(t *testing.T) {
	cases := []struct {
		from HoldStatus
		to   HoldStatus
		ok   bool
	}{
		{HoldAuthorized, HoldCaptured, true},
		{HoldAuthorized, HoldCanceled, true},
		{HoldAuthorized, HoldExpired, true},
		{HoldRequiresCapture, HoldCaptured, true},
		{HoldCaptured, HoldCanceled, false},
		{HoldCanceled, HoldCaptured, false},
		{HoldExpired, HoldCaptured, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
	for _, s := range []HoldStatus{HoldCaptured, HoldCanceled, HoldExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	err := Conflict("already_captured", "hold already captured")
	if !IsKind(err, KindStateConflict) {
		t.Error("IsKind failed on direct error")
	}
	if !IsCode(err, "already_captured") {
		t.Error("IsCode failed on direct error")
	}
	if IsCode(err, "not_found") {
		t.Error("IsCode matched the wrong code")
	}
	de, ok := AsError(err)
	if !ok || de.Code != "already_captured" {
		t.Errorf("AsError: ok=%v de=%+v", ok, de)
	}
	if IsKind(nil, KindStateConflict) {
		t.Error("IsKind matched nil")
	}
}
