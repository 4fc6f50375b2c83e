package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrAuthorizationNotFound = errors.New("payment authorization not found")
	// ErrGatewayTimeout marks an ambiguous outcome: the caller must not
	// retry the charge, only poll for the authorization state.
	ErrGatewayTimeout = errors.New("payment gateway timed out")
)

type CreateAuthorizationResult struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret"`
}

// Gateway is the payment provider boundary. Authorizations are created and
// confirmed by the client directly against the provider; the server only
// creates them and reads them back.
type Gateway interface {
	CreateAuthorization(ctx context.Context, amount int64, currency string, metadata map[string]string) (*CreateAuthorizationResult, error)
	GetAuthorization(ctx context.Context, reference string) (*domain.Authorization, error)
}

type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		timeout: timeout,
	}
}

type createAuthorizationRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

func (g *HTTPGateway) CreateAuthorization(ctx context.Context, amount int64, currency string, metadata map[string]string) (*CreateAuthorizationResult, error) {
	body, err := json.Marshal(createAuthorizationRequest{
		Amount:   amount,
		Currency: currency,
		Metadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authorization request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/authorizations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned status %d creating authorization", resp.StatusCode)
	}

	var result CreateAuthorizationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode authorization response: %w", err)
	}
	return &result, nil
}

func (g *HTTPGateway) GetAuthorization(ctx context.Context, reference string) (*domain.Authorization, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/authorizations/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrAuthorizationNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d fetching authorization %s", resp.StatusCode, reference)
	}

	var auth domain.Authorization
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("failed to decode authorization %s: %w", reference, err)
	}
	return &auth, nil
}

// wrapTimeout maps transport deadline errors to the retryable sentinel so
// callers can tell an ambiguous timeout apart from a definitive failure.
func wrapTimeout(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	return fmt.Errorf("gateway request failed: %w", err)
}

var _ Gateway = (*HTTPGateway)(nil)
