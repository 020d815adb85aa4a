package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rdmlabs/agent-api/internal/config"
	"github.com/rdmlabs/agent-api/internal/model"
	"github.com/rdmlabs/agent-api/internal/payment"
)

func newTestClient(url string) *MasumiClient {
	return NewMasumiClient(&config.MasumiConfig{
		PaymentServiceURL: url,
		APIKey:            "test-key",
		Network:           "Preprod",
	})
}

func TestCreateRequest(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("token")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		gotType, _ = body["paymentType"].(string)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"blockchainIdentifier": "chain-xyz",
				"payByTime":            "1700000000000",
				"submitResultTime":     "1700000100000",
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	req, err := c.CreateRequest(context.Background(), &payment.CreateRequestInput{
		AgentIdentifier:         "agent-1",
		IdentifierFromPurchaser: "purchaser_123",
		InputData:               map[string]string{"text": "X"},
		Network:                 "Preprod",
		Amounts:                 []model.Amount{{Amount: "10000000", Unit: "lovelace"}},
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	if gotAuth != "test-key" {
		t.Errorf("expected token header, got %q", gotAuth)
	}
	if gotType != "Web3CardanoV1" {
		t.Errorf("expected Web3CardanoV1 payment type, got %q", gotType)
	}
	if req.BlockchainIdentifier != "chain-xyz" {
		t.Errorf("expected blockchain identifier from envelope, got %q", req.BlockchainIdentifier)
	}
	if req.InputHash != HashInputData(map[string]string{"text": "X"}) {
		t.Errorf("input hash must be computed locally, got %q", req.InputHash)
	}
}

func TestCreateRequestMissingIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateRequest(context.Background(), &payment.CreateRequestInput{
		InputData: map[string]string{"text": "X"},
	})
	if err == nil {
		t.Fatal("expected an error for an empty blockchain identifier")
	}
}

func TestCheckStatusPrefersOnChainState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"onChainState": payment.StatusFundsLocked,
				"status":       "PaymentRequested",
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	status, err := c.CheckStatus(context.Background(), "chain-xyz")
	if err != nil {
		t.Fatalf("check status failed: %v", err)
	}
	if status != payment.StatusFundsLocked {
		t.Errorf("expected on-chain state to win, got %q", status)
	}
}

func TestCheckStatusServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CheckStatus(context.Background(), "chain-xyz")
	if err == nil {
		t.Fatal("expected an error on a 500 response")
	}
}

func TestSettleHashesResult(t *testing.T) {
	var gotHash string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotHash, _ = body["submitResultHash"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.Settle(context.Background(), "chain-xyz", "final result"); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	want := sha256.Sum256([]byte("final result"))
	if gotHash != hex.EncodeToString(want[:]) {
		t.Errorf("expected sha256 of the result text, got %q", gotHash)
	}
}

func TestUnconfiguredClientMockMode(t *testing.T) {
	c := NewMasumiClient(&config.MasumiConfig{Network: "Preprod"})

	req, err := c.CreateRequest(context.Background(), &payment.CreateRequestInput{
		InputData: map[string]string{"text": "X"},
	})
	if err != nil {
		t.Fatalf("mock create failed: %v", err)
	}
	if !strings.HasPrefix(req.BlockchainIdentifier, "mock_payment_") {
		t.Errorf("expected mock reference, got %q", req.BlockchainIdentifier)
	}

	status, err := c.CheckStatus(context.Background(), req.BlockchainIdentifier)
	if err != nil || status != payment.StatusWaitingForExternal {
		t.Errorf("mock status should hold at waiting, got %q (%v)", status, err)
	}

	if err := c.Settle(context.Background(), req.BlockchainIdentifier, "anything"); err != nil {
		t.Errorf("mock settle must be a no-op, got %v", err)
	}
}

func TestHashInputDataDeterministic(t *testing.T) {
	a := HashInputData(map[string]string{"b": "2", "a": "1"})
	b := HashInputData(map[string]string{"a": "1", "b": "2"})
	if a != b {
		t.Errorf("hash must not depend on key order: %q vs %q", a, b)
	}
	if a == HashInputData(map[string]string{"a": "1", "b": "3"}) {
		t.Error("different inputs must not collide trivially")
	}
}
