package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// RestProcessor talks to the processor's REST API. Authentication is OAuth2
// client-credentials; the token source refreshes transparently.
type RestProcessor struct {
	BaseURL string
	client  *http.Client
}

func NewRestProcessor(baseURL, tokenURL, clientID, clientSecret string) *RestProcessor {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	client := cc.Client(context.Background())
	client.Timeout = 30 * time.Second
	return &RestProcessor{
		BaseURL: baseURL,
		client:  client,
	}
}

// do posts a JSON body and decodes the JSON response into out. A non-empty
// idempotency key is sent as the Idempotency-Key header.
func (p *RestProcessor) do(ctx context.Context, method, path, idempotencyKey string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	log.Printf("[Processor] %s %s idem=%s", method, path, idempotencyKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return ErrDeclined
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		log.Printf("[Processor] %s %s failed status=%d body=%s", method, path, resp.StatusCode, string(respBody))
		return fmt.Errorf("processor api: %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return err
		}
	}
	return nil
}

type holdPayload struct {
	ReservationID uint   `json:"reservation_id"`
	Instrument    string `json:"instrument"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

type holdResponse struct {
	Ref         string `json:"ref"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
}

func (p *RestProcessor) AuthorizeHold(ctx context.Context, req HoldRequest) (*Hold, error) {
	var out holdResponse
	err := p.do(ctx, http.MethodPost, "/v1/holds", req.IdempotencyKey, holdPayload{
		ReservationID: req.ReservationID,
		Instrument:    req.PaymentInstrument,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Hold{Ref: out.Ref, Status: out.Status, AmountCents: out.AmountCents}, nil
}

type captureResponse struct {
	ChargeRef     string `json:"charge_ref"`
	CapturedCents int64  `json:"captured_cents"`
	Status        string `json:"status"`
}

func (p *RestProcessor) CaptureHold(ctx context.Context, holdRef string, amountCents int64, idempotencyKey string) (*CaptureResult, error) {
	var out captureResponse
	err := p.do(ctx, http.MethodPost, "/v1/holds/"+holdRef+"/capture", idempotencyKey,
		map[string]int64{"amount_cents": amountCents}, &out)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{ChargeRef: out.ChargeRef, CapturedCents: out.CapturedCents, Status: out.Status}, nil
}

func (p *RestProcessor) CancelHold(ctx context.Context, holdRef, idempotencyKey string) (*Hold, error) {
	var out holdResponse
	err := p.do(ctx, http.MethodPost, "/v1/holds/"+holdRef+"/cancel", idempotencyKey, nil, &out)
	if err != nil {
		return nil, err
	}
	return &Hold{Ref: out.Ref, Status: out.Status, AmountCents: out.AmountCents}, nil
}

type transferResponse struct {
	Ref         string `json:"ref"`
	AmountCents int64  `json:"amount_cents"`
	Destination string `json:"destination"`
}

func (p *RestProcessor) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	var out transferResponse
	err := p.do(ctx, http.MethodPost, "/v1/transfers", req.IdempotencyKey, map[string]interface{}{
		"amount_cents": req.AmountCents,
		"currency":     req.Currency,
		"destination":  req.Destination,
		"description":  req.Description,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Transfer{Ref: out.Ref, AmountCents: out.AmountCents, Destination: out.Destination}, nil
}

type accountResponse struct {
	Ref            string   `json:"ref"`
	ChargesEnabled bool     `json:"charges_enabled"`
	PayoutsEnabled bool     `json:"payouts_enabled"`
	Requirements   []string `json:"requirements"`
}

func (a accountResponse) toAccount() *Account {
	return &Account{
		Ref:            a.Ref,
		ChargesEnabled: a.ChargesEnabled,
		PayoutsEnabled: a.PayoutsEnabled,
		Requirements:   a.Requirements,
	}
}

func (p *RestProcessor) CreateAccount(ctx context.Context, req AccountRequest) (*Account, error) {
	var out accountResponse
	err := p.do(ctx, http.MethodPost, "/v1/accounts", fmt.Sprintf("payee%d-account", req.PayeeID),
		map[string]interface{}{"payee_id": req.PayeeID, "email": req.Email, "country": req.Country}, &out)
	if err != nil {
		return nil, err
	}
	return out.toAccount(), nil
}

func (p *RestProcessor) GetAccount(ctx context.Context, accountRef string) (*Account, error) {
	var out accountResponse
	if err := p.do(ctx, http.MethodGet, "/v1/accounts/"+accountRef, "", nil, &out); err != nil {
		return nil, err
	}
	return out.toAccount(), nil
}

func (p *RestProcessor) CreateAccountLink(ctx context.Context, accountRef, kind string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := p.do(ctx, http.MethodPost, "/v1/account_links", "", map[string]string{
		"account": accountRef,
		"kind":    kind,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

type payoutResponse struct {
	Ref         string `json:"ref"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

func (p *RestProcessor) CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutReceipt, error) {
	var out payoutResponse
	err := p.do(ctx, http.MethodPost, "/v1/payouts", req.IdempotencyKey, map[string]interface{}{
		"amount_cents": req.AmountCents,
		"currency":     req.Currency,
		"destination":  req.Destination,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &PayoutReceipt{Ref: out.Ref, AmountCents: out.AmountCents, Status: out.Status}, nil
}
