package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// StubProcessor is an in-memory processor for development and tests.
// Mutating calls are idempotent by key, mirroring the real API. The exported
// knobs let tests force declines and transfer/payout failures.
type StubProcessor struct {
	mu  sync.Mutex
	seq int

	holds     map[string]*Hold
	accounts  map[string]*Account
	transfers map[string]*Transfer      // idempotency key -> transfer
	payouts   map[string]*PayoutReceipt // idempotency key -> receipt

	DeclineHolds     bool
	FailTransfersTo  map[string]bool // destination refs whose transfers fail
	FailPayouts      bool
	NewAccountsReady bool // created accounts are immediately transfer-eligible
}

func NewStubProcessor() *StubProcessor {
	return &StubProcessor{
		holds:            make(map[string]*Hold),
		accounts:         make(map[string]*Account),
		transfers:        make(map[string]*Transfer),
		payouts:          make(map[string]*PayoutReceipt),
		FailTransfersTo:  make(map[string]bool),
		NewAccountsReady: true,
	}
}

func (s *StubProcessor) nextRef(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_%d", prefix, s.seq)
}

func (s *StubProcessor) AuthorizeHold(ctx context.Context, req HoldRequest) (*Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeclineHolds {
		return nil, ErrDeclined
	}
	h := &Hold{Ref: s.nextRef("hold"), Status: "authorized", AmountCents: req.AmountCents}
	s.holds[h.Ref] = h
	return h, nil
}

func (s *StubProcessor) CaptureHold(ctx context.Context, holdRef string, amountCents int64, idempotencyKey string) (*CaptureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdRef]
	if !ok {
		return nil, ErrNotFound
	}
	if h.Status != "authorized" {
		return nil, errors.New("hold not capturable")
	}
	if amountCents > h.AmountCents {
		return nil, errors.New("capture exceeds authorization")
	}
	h.Status = "captured"
	return &CaptureResult{ChargeRef: s.nextRef("ch"), CapturedCents: amountCents, Status: "captured"}, nil
}

func (s *StubProcessor) CancelHold(ctx context.Context, holdRef, idempotencyKey string) (*Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdRef]
	if !ok {
		return nil, ErrNotFound
	}
	if h.Status == "authorized" {
		h.Status = "canceled"
	}
	return h, nil
}

func (s *StubProcessor) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.transfers[req.IdempotencyKey]; ok {
		return t, nil
	}
	if s.FailTransfersTo[req.Destination] {
		return nil, errors.New("transfer failed")
	}
	t := &Transfer{Ref: s.nextRef("tr"), AmountCents: req.AmountCents, Destination: req.Destination}
	s.transfers[req.IdempotencyKey] = t
	return t, nil
}

func (s *StubProcessor) CreateAccount(ctx context.Context, req AccountRequest) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &Account{Ref: s.nextRef("acct")}
	if s.NewAccountsReady {
		a.ChargesEnabled = true
		a.PayoutsEnabled = true
	} else {
		a.Requirements = []string{"identity_document"}
	}
	s.accounts[a.Ref] = a
	return a, nil
}

func (s *StubProcessor) GetAccount(ctx context.Context, accountRef string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountRef]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// SetAccountState flips eligibility flags on an existing stub account.
func (s *StubProcessor) SetAccountState(accountRef string, charges, payouts bool, requirements []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[accountRef]; ok {
		a.ChargesEnabled = charges
		a.PayoutsEnabled = payouts
		a.Requirements = requirements
	}
}

// DropAccount removes an account, simulating a ref that is stale remotely.
func (s *StubProcessor) DropAccount(accountRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, accountRef)
}

func (s *StubProcessor) CreateAccountLink(ctx context.Context, accountRef, kind string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountRef]; !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("https://processor.example/%s/%s", kind, accountRef), nil
}

func (s *StubProcessor) CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payouts[req.IdempotencyKey]; ok {
		return p, nil
	}
	if s.FailPayouts {
		return nil, errors.New("payout failed")
	}
	p := &PayoutReceipt{Ref: s.nextRef("po"), AmountCents: req.AmountCents, Status: "paid"}
	s.payouts[req.IdempotencyKey] = p
	return p, nil
}
