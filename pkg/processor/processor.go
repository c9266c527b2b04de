package processor

import (
	"context"
	"errors"
)

// ErrDeclined is returned when the processor refuses the payment instrument.
var ErrDeclined = errors.New("payment instrument declined")

// ErrNotFound is returned when a referenced processor object does not exist
// (e.g. a locally stored account ref that was deleted remotely).
var ErrNotFound = errors.New("processor object not found")

type HoldRequest struct {
	ReservationID     uint
	PaymentInstrument string // processor token for the guest's instrument
	AmountCents       int64
	Currency          string
	IdempotencyKey    string
}

type Hold struct {
	Ref         string
	Status      string // authorized, canceled, expired
	AmountCents int64
}

type CaptureResult struct {
	ChargeRef     string
	CapturedCents int64
	Status        string
}

type TransferRequest struct {
	AmountCents    int64
	Currency       string
	Destination    string // payee account ref
	IdempotencyKey string
	Description    string
}

type Transfer struct {
	Ref         string
	AmountCents int64
	Destination string
}

type AccountRequest struct {
	PayeeID uint
	Email   string
	Country string
}

type Account struct {
	Ref            string
	ChargesEnabled bool
	PayoutsEnabled bool
	Requirements   []string
}

// Account link kinds for payee onboarding redirects.
const (
	LinkOnboarding = "account_onboarding"
	LinkUpdate     = "account_update"
)

type PayoutRequest struct {
	AmountCents    int64
	Currency       string
	Destination    string
	IdempotencyKey string
}

type PayoutReceipt struct {
	Ref         string
	AmountCents int64
	Status      string
}

// Processor abstracts the external payment processor. Every mutating call
// carries an idempotency key so network-level retries cannot duplicate
// financial effects.
type Processor interface {
	AuthorizeHold(ctx context.Context, req HoldRequest) (*Hold, error)
	CaptureHold(ctx context.Context, holdRef string, amountCents int64, idempotencyKey string) (*CaptureResult, error)
	CancelHold(ctx context.Context, holdRef, idempotencyKey string) (*Hold, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	CreateAccount(ctx context.Context, req AccountRequest) (*Account, error)
	GetAccount(ctx context.Context, accountRef string) (*Account, error)
	CreateAccountLink(ctx context.Context, accountRef, kind string) (string, error)
	CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutReceipt, error)
}
