package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"subly/internal/domain"
	"subly/internal/models"
	"subly/internal/repository"
	"subly/pkg/processor"

	"gorm.io/gorm"
)

// AccountService provisions and tracks payout-capable processor accounts
// per payee (main tenant, proprietor).
type AccountService struct {
	accounts *repository.AccountRepository
	proc     processor.Processor
}

func NewAccountService(accounts *repository.AccountRepository, proc processor.Processor) *AccountService {
	return &AccountService{accounts: accounts, proc: proc}
}

// Eligibility is the live processor-side status of a payee account. It is
// queried fresh for every check; the stored snapshot is informational only.
type Eligibility struct {
	PayeeID        uint     `json:"payee_id"`
	AccountRef     string   `json:"account_ref"`
	ChargesEnabled bool     `json:"charges_enabled"`
	PayoutsEnabled bool     `json:"payouts_enabled"`
	Eligible       bool     `json:"eligible"`
	Requirements   []string `json:"requirements"`
}

// EnsureAccount returns the payee's processor account, provisioning one if
// missing. A locally stored ref that no longer exists at the processor is
// cleared and reprovisioned instead of failing.
func (s *AccountService) EnsureAccount(ctx context.Context, payeeID uint, email string) (*models.PayeeAccount, error) {
	rec, err := s.accounts.GetByPayeeID(payeeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if rec != nil && rec.AccountRef != "" {
		remote, err := s.proc.GetAccount(ctx, rec.AccountRef)
		if err == nil {
			s.syncFlags(rec, remote)
			return rec, nil
		}
		if !errors.Is(err, processor.ErrNotFound) {
			return nil, domain.External("account_lookup_failed", "could not verify payout account", err)
		}
		log.Printf("[Account] payee=%d stale account ref %s, reprovisioning", payeeID, rec.AccountRef)
		if err := s.accounts.ClearAccountRef(payeeID); err != nil {
			return nil, err
		}
		rec.AccountRef = ""
	}
	if email == "" && rec != nil {
		email = rec.Email
	}
	remote, err := s.proc.CreateAccount(ctx, processor.AccountRequest{PayeeID: payeeID, Email: email, Country: "FR"})
	if err != nil {
		return nil, domain.External("account_provision_failed", "could not provision payout account", err)
	}
	if rec == nil {
		rec = &models.PayeeAccount{PayeeID: payeeID, Email: email}
		if err := s.accounts.Create(rec); err != nil {
			return nil, err
		}
	}
	rec.AccountRef = remote.Ref
	s.syncFlags(rec, remote)
	log.Printf("[Account] payee=%d provisioned account %s", payeeID, remote.Ref)
	return rec, nil
}

// CheckEligibility queries the processor for the payee's current transfer
// eligibility. Results are never cached beyond this call: eligibility can
// change at any time outside this system's control.
func (s *AccountService) CheckEligibility(ctx context.Context, payeeID uint) (*Eligibility, error) {
	rec, err := s.accounts.GetByPayeeID(payeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Eligibility{PayeeID: payeeID, Requirements: []string{"payout_account_missing"}}, nil
		}
		return nil, err
	}
	if rec.AccountRef == "" {
		return &Eligibility{PayeeID: payeeID, Requirements: []string{"payout_account_missing"}}, nil
	}
	remote, err := s.proc.GetAccount(ctx, rec.AccountRef)
	if err != nil {
		if errors.Is(err, processor.ErrNotFound) {
			return &Eligibility{PayeeID: payeeID, Requirements: []string{"payout_account_missing"}}, nil
		}
		return nil, domain.External("account_lookup_failed", "could not verify payout account", err)
	}
	s.syncFlags(rec, remote)
	return &Eligibility{
		PayeeID:        payeeID,
		AccountRef:     rec.AccountRef,
		ChargesEnabled: remote.ChargesEnabled,
		PayoutsEnabled: remote.PayoutsEnabled,
		Eligible:       remote.ChargesEnabled && remote.PayoutsEnabled,
		Requirements:   remote.Requirements,
	}, nil
}

// OnboardingLink produces a redirect URL for first-time onboarding.
func (s *AccountService) OnboardingLink(ctx context.Context, payeeID uint, email string) (string, error) {
	return s.link(ctx, payeeID, email, processor.LinkOnboarding)
}

// UpdateLink produces a redirect URL to amend an existing account, used
// when outstanding requirements appear after onboarding.
func (s *AccountService) UpdateLink(ctx context.Context, payeeID uint, email string) (string, error) {
	return s.link(ctx, payeeID, email, processor.LinkUpdate)
}

func (s *AccountService) link(ctx context.Context, payeeID uint, email, kind string) (string, error) {
	rec, err := s.EnsureAccount(ctx, payeeID, email)
	if err != nil {
		return "", err
	}
	url, err := s.proc.CreateAccountLink(ctx, rec.AccountRef, kind)
	if err != nil {
		return "", domain.External("account_link_failed", "could not create onboarding link", err)
	}
	return url, nil
}

// RefreshFromProcessor re-reads the remote account for a webhook-delivered
// account ref and stores the new snapshot.
func (s *AccountService) RefreshFromProcessor(ctx context.Context, accountRef string) error {
	rec, err := s.accounts.GetByAccountRef(accountRef)
	if err != nil {
		return err
	}
	remote, err := s.proc.GetAccount(ctx, accountRef)
	if err != nil {
		return err
	}
	return s.syncFlags(rec, remote)
}

// syncFlags stores the latest remote snapshot on the local record.
func (s *AccountService) syncFlags(rec *models.PayeeAccount, remote *processor.Account) error {
	reqs, _ := json.Marshal(remote.Requirements)
	rec.ChargesEnabled = remote.ChargesEnabled
	rec.PayoutsEnabled = remote.PayoutsEnabled
	rec.Requirements = string(reqs)
	return s.accounts.Update(rec)
}
