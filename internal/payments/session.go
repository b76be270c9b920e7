package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/obafemi/chopwell-backend/internal/orders"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/monnify"
	pkgredis "github.com/obafemi/chopwell-backend/pkg/redis"
)

// SessionStatus tracks whether a payment session has been materialized.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusCompleted SessionStatus = "completed"
)

// PaymentSession is the ephemeral cart snapshot parked in redis while the
// customer completes a bank transfer. It outlives the processing lock by
// hours; the completed record is kept so replayed verify calls can
// short-circuit to the orders it already produced.
type PaymentSession struct {
	AccountReference string                    `json:"account_reference"`
	Status           SessionStatus             `json:"status"`
	WebhookStatus    string                    `json:"webhook_status,omitempty"`
	CustomerID       *uuid.UUID                `json:"customer_id,omitempty"`
	CustomerName     string                    `json:"customer_name"`
	CustomerEmail    string                    `json:"customer_email"`
	ExpectedAmount   decimal.Decimal           `json:"expected_amount"`
	Carts            []orders.CreateOrderInput `json:"carts"`
	Account          *monnify.ReservedAccount  `json:"account,omitempty"`
	OrderIDs         []uuid.UUID               `json:"order_ids,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// SessionStore persists payment sessions in the shared TTL store so every
// request-handling process sees the same state.
type SessionStore struct {
	store pkgredis.SessionStore
	ttl   time.Duration
}

func NewSessionStore(store pkgredis.SessionStore, ttl time.Duration) (*SessionStore, error) {
	if store == nil {
		return nil, fmt.Errorf("session backing store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionStore{store: store, ttl: ttl}, nil
}

func (s *SessionStore) Save(ctx context.Context, session *PaymentSession) error {
	if session == nil || session.AccountReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session account reference required")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment session")
	}
	key := pkgredis.PaymentSessionKey(session.AccountReference)
	if err := s.store.Set(ctx, key, string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment session")
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, accountReference string) (*PaymentSession, error) {
	raw, err := s.store.Get(ctx, pkgredis.PaymentSessionKey(accountReference))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment session")
	}
	var session PaymentSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode payment session")
	}
	return &session, nil
}
