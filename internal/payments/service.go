package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obafemi/chopwell-backend/internal/idempotency"
	"github.com/obafemi/chopwell-backend/internal/orders"
	"github.com/obafemi/chopwell-backend/pkg/config"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/metrics"
	"github.com/obafemi/chopwell-backend/pkg/monnify"
	pkgredis "github.com/obafemi/chopwell-backend/pkg/redis"
)

// VerifyOutcome is the disposition of one verification call. Pending and
// processing are not errors: the client is expected to poll again.
type VerifyOutcome string

const (
	OutcomePending    VerifyOutcome = "pending"
	OutcomeProcessing VerifyOutcome = "processing"
	OutcomeCompleted  VerifyOutcome = "completed"

	reconcilerActor = "payment-reconciler"
)

// VerifyResult is what a poll call hands back to the client.
type VerifyResult struct {
	Outcome  VerifyOutcome     `json:"outcome"`
	OrderIDs []uuid.UUID       `json:"order_ids,omitempty"`
	Orders   []orders.OrderDTO `json:"orders,omitempty"`
}

// CreateSessionInput opens a payment session for one checkout.
type CreateSessionInput struct {
	CustomerID    *uuid.UUID
	CustomerName  string
	CustomerEmail string
	Carts         []orders.CreateOrderInput
}

// SessionDTO is the client-facing view of a freshly created session.
type SessionDTO struct {
	AccountReference string                   `json:"account_reference"`
	Account          *monnify.ReservedAccount `json:"account"`
	ExpectedAmount   decimal.Decimal          `json:"expected_amount"`
	CreatedAt        time.Time                `json:"created_at"`
}

// provider is the slice of the Monnify client the reconciler drives.
type provider interface {
	ReserveAccount(ctx context.Context, accountReference, customerName, customerEmail string) (*monnify.ReservedAccount, error)
	ListTransactions(ctx context.Context, accountReference string) ([]monnify.Transaction, error)
}

// orderMaterializer is the slice of the order service the reconciler drives.
type orderMaterializer interface {
	MaterializeFromPayment(ctx context.Context, carts []orders.CreateOrderInput, payment orders.PaymentDetails) ([]orders.OrderDTO, error)
	PriceCarts(ctx context.Context, carts []orders.CreateOrderInput) (decimal.Decimal, error)
}

// orderFinder answers the two questions the matching predicate asks of the
// persisted orders: has this payment reference materialized, and has this
// provider transaction already been consumed.
type orderFinder interface {
	FindByPaymentReference(ctx context.Context, reference string) ([]models.Order, error)
	ExistsByTransactionRef(ctx context.Context, transactionRef string) (bool, error)
}

// Service turns an eventually-consistent provider confirmation into exactly
// one set of persisted orders. The poll path materializes; the webhook path
// only annotates the session.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*SessionDTO, error)
	VerifyPayment(ctx context.Context, accountReference string) (*VerifyResult, error)
	HandleWebhook(ctx context.Context, payload monnify.WebhookPayload) error
}

type service struct {
	provider provider
	sessions *SessionStore
	locks    idempotency.Service
	orderSvc orderMaterializer
	finder   orderFinder
	cfg      config.PaymentConfig
	epsilon  decimal.Decimal
	metrics  *metrics.ReconciliationMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the payment reconciler. metrics may be nil.
func NewService(
	prov provider,
	sessions *SessionStore,
	locks idempotency.Service,
	orderSvc orderMaterializer,
	finder orderFinder,
	paymentCfg config.PaymentConfig,
	amountEpsilon string,
	recorder *metrics.ReconciliationMetrics,
	logg *logger.Logger,
) (Service, error) {
	if prov == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if finder == nil {
		return nil, fmt.Errorf("order finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	epsilon, err := decimal.NewFromString(strings.TrimSpace(amountEpsilon))
	if err != nil || !epsilon.IsPositive() {
		return nil, fmt.Errorf("invalid amount epsilon %q", amountEpsilon)
	}
	return &service{
		provider: prov,
		sessions: sessions,
		locks:    locks,
		orderSvc: orderSvc,
		finder:   finder,
		cfg:      paymentCfg,
		epsilon:  epsilon,
		metrics:  recorder,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// CreateSession prices the carts, reserves a dedicated virtual account, and
// parks the snapshot in the session store until the transfer lands.
func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*SessionDTO, error) {
	if len(input.Carts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout needs at least one cart")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}

	expected, err := s.orderSvc.PriceCarts(ctx, input.Carts)
	if err != nil {
		return nil, err
	}

	accountReference := "CW-" + uuid.NewString()
	account, err := s.provider.ReserveAccount(ctx, accountReference, input.CustomerName, input.CustomerEmail)
	if err != nil {
		return nil, err
	}

	session := &PaymentSession{
		AccountReference: accountReference,
		Status:           SessionStatusPending,
		CustomerID:       input.CustomerID,
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		ExpectedAmount:   expected,
		Carts:            input.Carts,
		Account:          account,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "account_reference", accountReference), "payment session created")
	return &SessionDTO{
		AccountReference: accountReference,
		Account:          account,
		ExpectedAmount:   expected,
		CreatedAt:        session.CreatedAt,
	}, nil
}

// VerifyPayment is the authoritative materializer. It is safe to call any
// number of times concurrently: completed sessions and already-persisted
// payment references short-circuit, and the processing lock serializes the
// one materialization that actually runs.
func (s *service) VerifyPayment(ctx context.Context, accountReference string) (result *VerifyResult, err error) {
	start := s.now()
	defer func() {
		outcome := "error"
		if result != nil {
			outcome = string(result.Outcome)
		}
		s.metrics.ObserveVerify(outcome, s.now().Sub(start))
	}()

	if strings.TrimSpace(accountReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account reference required")
	}

	session, err := s.sessions.Get(ctx, accountReference)
	if err != nil {
		return nil, err
	}
	if session.Status == SessionStatusCompleted {
		return s.completedResult(ctx, session)
	}

	existing, err := s.finder.FindByPaymentReference(ctx, accountReference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up orders for payment reference")
	}
	if len(existing) > 0 {
		return s.healSession(ctx, session, existing)
	}

	txs, err := s.provider.ListTransactions(ctx, accountReference)
	if err != nil {
		return nil, err
	}
	match, err := s.matchTransaction(ctx, session, txs)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return &VerifyResult{Outcome: OutcomePending}, nil
	}

	lock, err := s.locks.TryAcquire(ctx, pkgredis.ProcessingKey(accountReference), s.cfg.ProcessingLockTTL)
	if err != nil {
		if errors.Is(err, idempotency.ErrLockHeld) {
			return &VerifyResult{Outcome: OutcomeProcessing}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire processing lock")
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", releaseErr.Error()), "release processing lock failed")
		}
	}()

	// Re-check under the lock: a racing call may have materialized while we
	// were matching.
	session, err = s.sessions.Get(ctx, accountReference)
	if err != nil {
		return nil, err
	}
	if session.Status == SessionStatusCompleted {
		return s.completedResult(ctx, session)
	}
	existing, err = s.finder.FindByPaymentReference(ctx, accountReference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up orders for payment reference")
	}
	if len(existing) > 0 {
		return s.healSession(ctx, session, existing)
	}

	dtos, err := s.orderSvc.MaterializeFromPayment(ctx, session.Carts, orders.PaymentDetails{
		PaymentReference: accountReference,
		TransactionRef:   match.TransactionReference,
		Actor:            reconcilerActor,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(dtos))
	for _, dto := range dtos {
		ids = append(ids, dto.ID)
	}
	session.Status = SessionStatusCompleted
	session.OrderIDs = ids
	if err := s.sessions.Save(ctx, session); err != nil {
		// The orders are committed; the next verify heals the session off
		// the payment reference.
		s.logg.Error(ctx, "mark payment session completed failed", err)
	}

	s.logg.Info(s.logg.WithField(ctx, "account_reference", accountReference), "payment materialized orders")
	return &VerifyResult{Outcome: OutcomeCompleted, OrderIDs: ids, Orders: dtos}, nil
}

// HandleWebhook records the provider's push notification as corroborating
// data only. Materialization stays with the poll path, which has the
// transaction feed needed for amount and recency matching.
func (s *service) HandleWebhook(ctx context.Context, payload monnify.WebhookPayload) error {
	if payload.PaymentStatus != monnify.PaymentStatusPaid {
		s.metrics.IncWebhook("ignored")
		return nil
	}
	if strings.TrimSpace(payload.TransactionReference) == "" {
		s.metrics.IncWebhook("rejected")
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	fresh, err := s.locks.MarkProcessed(ctx, pkgredis.WebhookProcessedKey(payload.TransactionReference), s.cfg.WebhookDedupTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark webhook processed")
	}
	if !fresh {
		s.metrics.IncWebhook("duplicate")
		return nil
	}

	session, err := s.sessions.Get(ctx, payload.AccountReference)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Advisory signal for a session we no longer hold. Nothing to do.
			s.metrics.IncWebhook("orphaned")
			return nil
		}
		s.clearWebhookMarker(ctx, payload.TransactionReference)
		return err
	}
	session.WebhookStatus = monnify.PaymentStatusPaid
	if err := s.sessions.Save(ctx, session); err != nil {
		s.clearWebhookMarker(ctx, payload.TransactionReference)
		return err
	}

	s.metrics.IncWebhook("accepted")
	s.logg.Info(s.logg.WithField(ctx, "account_reference", payload.AccountReference), "webhook annotated payment session")
	return nil
}

// clearWebhookMarker lets the provider's retry back in after a failed
// annotation; without it the dedup marker would eat the redelivery.
func (s *service) clearWebhookMarker(ctx context.Context, transactionReference string) {
	key := pkgredis.WebhookProcessedKey(transactionReference)
	if err := s.locks.ClearProcessed(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "clear webhook marker failed")
	}
}

// matchTransaction selects the first settlement row that satisfies the whole
// predicate: paid, amount within epsilon, created after the session opened
// (allowing for clock skew) and recently, and not already consumed by a
// persisted order. Stale rows from a reused virtual account fail the
// recency checks.
func (s *service) matchTransaction(ctx context.Context, session *PaymentSession, txs []monnify.Transaction) (*monnify.Transaction, error) {
	now := s.now()
	for i := range txs {
		tx := txs[i]
		if tx.PaymentStatus != monnify.PaymentStatusPaid {
			continue
		}
		if tx.AmountPaid.Sub(session.ExpectedAmount).Abs().GreaterThanOrEqual(s.epsilon) {
			continue
		}
		created := tx.CreatedOn.Time
		if created.Before(session.CreatedAt.Add(-s.cfg.ClockSkew)) {
			continue
		}
		if now.Sub(created) > s.cfg.RecencyWindow {
			continue
		}
		consumed, err := s.finder.ExistsByTransactionRef(ctx, tx.TransactionReference)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transaction reference")
		}
		if consumed {
			continue
		}
		return &tx, nil
	}
	return nil, nil
}

func (s *service) completedResult(ctx context.Context, session *PaymentSession) (*VerifyResult, error) {
	return &VerifyResult{Outcome: OutcomeCompleted, OrderIDs: session.OrderIDs}, nil
}

func (s *service) healSession(ctx context.Context, session *PaymentSession, existing []models.Order) (*VerifyResult, error) {
	ids := make([]uuid.UUID, 0, len(existing))
	for _, order := range existing {
		ids = append(ids, order.ID)
	}
	if session.Status != SessionStatusCompleted {
		session.Status = SessionStatusCompleted
		session.OrderIDs = ids
		if err := s.sessions.Save(ctx, session); err != nil {
			s.logg.Error(ctx, "heal payment session failed", err)
		}
	}
	return &VerifyResult{Outcome: OutcomeCompleted, OrderIDs: ids}, nil
}
