package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rdmlabs/agent-api/internal/config"
	"github.com/rdmlabs/agent-api/internal/payment"
)

// MasumiClient talks to a Masumi-style payment service. It implements
// payment.Provider.
type MasumiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	network    string
}

// NewMasumiClient creates a new payment service client.
func NewMasumiClient(cfg *config.MasumiConfig) *MasumiClient {
	return &MasumiClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.PaymentServiceURL,
		apiKey:  cfg.APIKey,
		network: cfg.Network,
	}
}

// IsConfigured returns true if the client has valid configuration.
func (c *MasumiClient) IsConfigured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// createPaymentRequest is the POST /payment request body.
type createPaymentRequest struct {
	AgentIdentifier         string            `json:"agentIdentifier"`
	Network                 string            `json:"network"`
	IdentifierFromPurchaser string            `json:"identifierFromPurchaser"`
	InputHash               string            `json:"inputHash"`
	PaymentType             string            `json:"paymentType"`
	Amounts                 []paymentAmount   `json:"RequestedFunds,omitempty"`
	Metadata                map[string]string `json:"metadata,omitempty"`
}

type paymentAmount struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// paymentData is the payment object the service wraps in {"data": ...}.
type paymentData struct {
	BlockchainIdentifier      string `json:"blockchainIdentifier"`
	PayByTime                 string `json:"payByTime"`
	SubmitResultTime          string `json:"submitResultTime"`
	UnlockTime                string `json:"unlockTime"`
	ExternalDisputeUnlockTime string `json:"externalDisputeUnlockTime"`
	OnChainState              string `json:"onChainState"`
	Status                    string `json:"status"`
}

type paymentEnvelope struct {
	Data paymentData `json:"data"`
}

// CreateRequest registers a payment request with the payment service.
// Unconfigured clients return a mock request so the rest of the flow can be
// exercised in development.
func (c *MasumiClient) CreateRequest(ctx context.Context, in *payment.CreateRequestInput) (*payment.PaymentRequest, error) {
	inputHash := HashInputData(in.InputData)

	if !c.IsConfigured() {
		return c.createMock(inputHash), nil
	}

	amounts := make([]paymentAmount, 0, len(in.Amounts))
	for _, a := range in.Amounts {
		amounts = append(amounts, paymentAmount{Amount: a.Amount, Unit: a.Unit})
	}

	reqBody := createPaymentRequest{
		AgentIdentifier:         in.AgentIdentifier,
		Network:                 in.Network,
		IdentifierFromPurchaser: in.IdentifierFromPurchaser,
		InputHash:               inputHash,
		PaymentType:             "Web3CardanoV1",
		Amounts:                 amounts,
	}

	var env paymentEnvelope
	if err := c.do(ctx, http.MethodPost, "/payment/", reqBody, &env); err != nil {
		return nil, err
	}
	if env.Data.BlockchainIdentifier == "" {
		return nil, fmt.Errorf("payment service returned no blockchain identifier")
	}

	return &payment.PaymentRequest{
		BlockchainIdentifier:      env.Data.BlockchainIdentifier,
		PayByTime:                 env.Data.PayByTime,
		SubmitResultTime:          env.Data.SubmitResultTime,
		UnlockTime:                env.Data.UnlockTime,
		ExternalDisputeUnlockTime: env.Data.ExternalDisputeUnlockTime,
		InputHash:                 inputHash,
	}, nil
}

// CheckStatus queries the current payment status for a blockchain identifier.
func (c *MasumiClient) CheckStatus(ctx context.Context, blockchainIdentifier string) (string, error) {
	if !c.IsConfigured() {
		return payment.StatusWaitingForExternal, nil
	}

	path := fmt.Sprintf("/payment/?network=%s&blockchainIdentifier=%s", c.network, blockchainIdentifier)

	var env paymentEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return "", err
	}

	if env.Data.OnChainState != "" {
		return env.Data.OnChainState, nil
	}
	return env.Data.Status, nil
}

// submitResultRequest is the body for the settlement call.
type submitResultRequest struct {
	Network              string `json:"network"`
	BlockchainIdentifier string `json:"blockchainIdentifier"`
	SubmitResultHash     string `json:"submitResultHash"`
}

// Settle submits the hashed result as proof of completion so the locked
// funds can be released to the seller.
func (c *MasumiClient) Settle(ctx context.Context, blockchainIdentifier, resultText string) error {
	if !c.IsConfigured() {
		return nil
	}

	hash := sha256.Sum256([]byte(resultText))
	reqBody := submitResultRequest{
		Network:              c.network,
		BlockchainIdentifier: blockchainIdentifier,
		SubmitResultHash:     hex.EncodeToString(hash[:]),
	}

	var env paymentEnvelope
	return c.do(ctx, http.MethodPost, "/payment/submit-result", reqBody, &env)
}

func (c *MasumiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *MasumiClient) createMock(inputHash string) *payment.PaymentRequest {
	now := time.Now()
	return &payment.PaymentRequest{
		BlockchainIdentifier:      "mock_payment_" + uuid.New().String(),
		PayByTime:                 fmt.Sprintf("%d", now.Add(15*time.Minute).UnixMilli()),
		SubmitResultTime:          fmt.Sprintf("%d", now.Add(12*time.Hour).UnixMilli()),
		UnlockTime:                fmt.Sprintf("%d", now.Add(24*time.Hour).UnixMilli()),
		ExternalDisputeUnlockTime: fmt.Sprintf("%d", now.Add(36*time.Hour).UnixMilli()),
		InputHash:                 inputHash,
	}
}

// HashInputData produces a deterministic sha256 over the input map. Keys are
// sorted so the hash does not depend on map iteration order.
func HashInputData(input map[string]string) string {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(input[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
