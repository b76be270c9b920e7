package monnify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"paymentStatus":"PAID","transactionReference":"TX-1"}`)
	header := ComputeSignature("secret", body)

	if !VerifySignature("secret", body, header) {
		t.Fatalf("expected signature to verify")
	}
	if VerifySignature("secret", []byte(`{"tampered":true}`), header) {
		t.Fatalf("expected tampered body to fail")
	}
	if VerifySignature("wrong", body, header) {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifySignature("secret", body, "") {
		t.Fatalf("expected empty header to fail")
	}
}

func TestTimeUnmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want time.Time
	}{
		{`1583929991000`, time.UnixMilli(1583929991000).UTC()},
		{`"2026-03-11T12:33:45Z"`, time.Date(2026, 3, 11, 12, 33, 45, 0, time.UTC)},
		{`"2026-03-11 12:33:45"`, time.Date(2026, 3, 11, 12, 33, 45, 0, time.UTC)},
	}
	for _, tc := range cases {
		var ts Time
		if err := json.Unmarshal([]byte(tc.raw), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if !ts.Time.Equal(tc.want) {
			t.Fatalf("parsed %s to %v, want %v", tc.raw, ts.Time, tc.want)
		}
	}

	var ts Time
	if err := json.Unmarshal([]byte(`"not a time"`), &ts); err == nil {
		t.Fatalf("expected error for junk timestamp")
	}
}

type stubDoer struct {
	responses map[string]string
	calls     []string
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	key := req.URL.Path
	if req.URL.RawQuery != "" {
		key += "?" + req.URL.RawQuery
	}
	s.calls = append(s.calls, key)
	body, ok := s.responses[key]
	if !ok {
		return nil, fmt.Errorf("unexpected request %s", key)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}, nil
}

func TestListTransactionsPaginates(t *testing.T) {
	t.Parallel()

	login := `{"requestSuccessful":true,"responseBody":{"accessToken":"tok","expiresIn":3600}}`
	page0 := `{"requestSuccessful":true,"responseBody":{"content":[{"transactionReference":"TX-1","paymentStatus":"PAID","amountPaid":"1080.00","createdOn":"2026-03-11T12:33:45Z"}],"totalPages":2,"number":0,"last":false}}`
	page1 := `{"requestSuccessful":true,"responseBody":{"content":[{"transactionReference":"TX-2","paymentStatus":"PENDING","amountPaid":"500.00","createdOn":"2026-03-11T12:40:00Z"}],"totalPages":2,"number":1,"last":true}}`

	doer := &stubDoer{responses: map[string]string{
		"/api/v1/auth/login": login,
		"/api/v1/bank-transfer/reserved-accounts/transactions?accountReference=ACC-1&page=0&size=50": page0,
		"/api/v1/bank-transfer/reserved-accounts/transactions?accountReference=ACC-1&page=1&size=50": page1,
	}}

	client := &Client{
		httpClient:   doer,
		baseURL:      "https://api.monnify.test",
		apiKey:       "key",
		secretKey:    "secret",
		contractCode: "contract",
	}

	txs, err := client.ListTransactions(context.Background(), "ACC-1")
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].TransactionReference != "TX-1" || txs[1].TransactionReference != "TX-2" {
		t.Fatalf("unexpected transaction order: %+v", txs)
	}
	if !txs[0].AmountPaid.Equal(decimal.RequireFromString("1080.00")) {
		t.Fatalf("unexpected amount %s", txs[0].AmountPaid)
	}

	// Token must be fetched once and reused across pages.
	loginCalls := 0
	for _, call := range doer.calls {
		if strings.HasPrefix(call, "/api/v1/auth/login") {
			loginCalls++
		}
	}
	if loginCalls != 1 {
		t.Fatalf("expected a single login call, got %d", loginCalls)
	}
}

func TestCallSurfacesProviderFailure(t *testing.T) {
	t.Parallel()

	login := `{"requestSuccessful":true,"responseBody":{"accessToken":"tok","expiresIn":3600}}`
	failed := `{"requestSuccessful":false,"responseMessage":"account not found","responseCode":"99"}`

	doer := &stubDoer{responses: map[string]string{
		"/api/v1/auth/login": login,
		"/api/v1/bank-transfer/reserved-accounts/transactions?accountReference=ACC-missing&page=0&size=50": failed,
	}}

	client := &Client{
		httpClient:   doer,
		baseURL:      "https://api.monnify.test",
		apiKey:       "key",
		secretKey:    "secret",
		contractCode: "contract",
	}

	if _, err := client.ListTransactions(context.Background(), "ACC-missing"); err == nil {
		t.Fatalf("expected provider failure to surface")
	}
}
