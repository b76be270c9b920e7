package monnify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPaid    = "PAID"
	PaymentStatusPending = "PENDING"
	PaymentStatusFailed  = "FAILED"
)

// Transaction is one settlement row from the provider's account feed.
type Transaction struct {
	TransactionReference string          `json:"transactionReference"`
	PaymentReference     string          `json:"paymentReference"`
	PaymentStatus        string          `json:"paymentStatus"`
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	CreatedOn            Time            `json:"createdOn"`
}

// ReservedAccount is the virtual bank account dedicated to one payment session.
type ReservedAccount struct {
	AccountReference string `json:"accountReference"`
	AccountNumber    string `json:"accountNumber"`
	AccountName      string `json:"accountName"`
	BankName         string `json:"bankName"`
	BankCode         string `json:"bankCode"`
}

// WebhookPayload is the body of a transaction-completed notification.
type WebhookPayload struct {
	PaymentStatus        string          `json:"paymentStatus"`
	TransactionReference string          `json:"transactionReference"`
	PaymentReference     string          `json:"paymentReference"`
	AccountReference     string          `json:"accountReference"`
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	PaidOn               Time            `json:"paidOn"`
}

// Time tolerates the provider's mixed timestamp encodings: epoch millis,
// RFC3339, and "2006-01-02 15:04:05".
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if !strings.HasPrefix(raw, `"`) {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse epoch timestamp %q: %w", raw, err)
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", value)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}
