package domain

// ReservationStatus is the financial lifecycle state of a booking.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// reservationTransitions lists the legal successor states per status.
// Cancelled and completed are terminal.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCompleted, ReservationCancelled},
	ReservationCancelled: {},
	ReservationCompleted: {},
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, t := range reservationTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return len(reservationTransitions[s]) == 0
}

// DepositStatus is the deposit state as recorded on the reservation.
type DepositStatus string

const (
	DepositNone       DepositStatus = "none"
	DepositAuthorized DepositStatus = "authorized"
	DepositCaptured   DepositStatus = "captured"
	DepositReleased   DepositStatus = "released"
	DepositCanceled   DepositStatus = "canceled"
)

// HoldStatus is the processor-side state of a deposit authorization.
type HoldStatus string

const (
	HoldAuthorized      HoldStatus = "authorized"
	HoldRequiresCapture HoldStatus = "requires_capture"
	HoldCaptured        HoldStatus = "captured"
	HoldCanceled        HoldStatus = "canceled"
	HoldExpired         HoldStatus = "expired"
)

var holdTransitions = map[HoldStatus][]HoldStatus{
	HoldAuthorized:      {HoldRequiresCapture, HoldCaptured, HoldCanceled, HoldExpired},
	HoldRequiresCapture: {HoldCaptured, HoldCanceled, HoldExpired},
	HoldCaptured:        {},
	HoldCanceled:        {},
	HoldExpired:         {},
}

func (s HoldStatus) CanTransitionTo(next HoldStatus) bool {
	for _, t := range holdTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further capture or release is permitted.
func (s HoldStatus) Terminal() bool {
	return len(holdTransitions[s]) == 0
}

// CapturableHoldStatuses are the predecessor states a capture accepts.
var CapturableHoldStatuses = []HoldStatus{HoldAuthorized, HoldRequiresCapture}

// PayoutStatus tracks a single payout dispatch record.
type PayoutStatus string

const (
	PayoutCreated    PayoutStatus = "created"
	PayoutConfirmed  PayoutStatus = "confirmed"
	PayoutFailed     PayoutStatus = "failed"
	PayoutUnrecorded PayoutStatus = "unrecorded" // processor confirmed, local balance move lost
)
