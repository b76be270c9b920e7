package batches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/internal/orders"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
	"github.com/obafemi/chopwell-backend/pkg/outbox/payloads"
)

// BatchStatus is the display status derived from member orders: preparing
// beats everything, completed only when every live member is done.
type BatchStatus string

const (
	BatchStatusConfirmed BatchStatus = "confirmed"
	BatchStatusPreparing BatchStatus = "preparing"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// DeriveBatchStatus folds member statuses into the batch display status.
func DeriveBatchStatus(statuses []enums.OrderStatus) BatchStatus {
	if len(statuses) == 0 {
		return BatchStatusCancelled
	}
	anyPreparing := false
	allCompleted := true
	allCancelled := true
	for _, s := range statuses {
		if s == enums.OrderStatusPreparing {
			anyPreparing = true
		}
		if s != enums.OrderStatusCancelled {
			allCancelled = false
			if s != enums.OrderStatusCompleted {
				allCompleted = false
			}
		}
	}
	switch {
	case anyPreparing:
		return BatchStatusPreparing
	case allCancelled:
		return BatchStatusCancelled
	case allCompleted:
		return BatchStatusCompleted
	default:
		return BatchStatusConfirmed
	}
}

// BatchDTO is the API shape of a kitchen batch.
type BatchDTO struct {
	BatchID  uuid.UUID   `json:"batch_id"`
	Status   BatchStatus `json:"status"`
	OrderIDs []uuid.UUID `json:"order_ids"`
}

// Service groups offline orders into kitchen batches and moves members
// through the lifecycle together.
type Service interface {
	Push(ctx context.Context, orderIDs []uuid.UUID, actor string) (*BatchDTO, error)
	StartPreparation(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error)
	Complete(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderConfirmer is the slice of the order state machine Push drives.
type orderConfirmer interface {
	ConfirmTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, params orders.ConfirmParams) (*models.Order, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	orderSvc orderConfirmer
	events   eventEmitter
	logg     *logger.Logger
}

// NewService constructs the batch grouper.
func NewService(repo *Repository, tx txRunner, orderSvc orderConfirmer, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order confirmer required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, orderSvc: orderSvc, events: events, logg: logg}, nil
}

// Push confirms a set of pending offline orders under one fresh batch id. The
// whole push is one transaction: a single shortfall aborts every member.
func (s *service) Push(ctx context.Context, orderIDs []uuid.UUID, actor string) (*BatchDTO, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no orders to push")
	}
	seen := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		if seen[id] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate order in push")
		}
		seen[id] = true
	}

	batchID := uuid.New()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, orderID := range orderIDs {
			order, err := s.orderSvc.ConfirmTx(ctx, tx, orderID, orders.ConfirmParams{
				BatchID: &batchID,
				Actor:   actor,
			})
			if err != nil {
				return err
			}
			if order.OrderType != enums.OrderTypeOffline {
				return pkgerrors.New(pkgerrors.CodeValidation, "only offline orders can be pushed to a batch")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BatchDTO{BatchID: batchID, Status: BatchStatusConfirmed, OrderIDs: orderIDs}, nil
}

// StartPreparation moves every confirmed-stage member to preparing with one
// UPDATE, and announces the batch to the kitchen.
func (s *service) StartPreparation(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error) {
	var dto *BatchDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		members, err := repo.FindMembers(ctx, batchID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
		}
		if len(members) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}

		now := time.Now().UTC()
		moved, err := repo.MarkPreparing(ctx, batchID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start batch preparation")
		}
		if moved == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no batch members ready for preparation")
		}

		ids := memberIDs(members)
		event := outbox.DomainEvent{
			EventType:     enums.EventBatchStarted,
			AggregateType: enums.AggregateBatch,
			AggregateID:   batchID,
			Version:       1,
			Data:          payloads.BatchStartedEvent{BatchID: batchID, OrderIDs: ids},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit batch started")
		}
		dto = &BatchDTO{BatchID: batchID, Status: BatchStatusPreparing, OrderIDs: ids}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Complete finishes every preparing member with one UPDATE.
func (s *service) Complete(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error) {
	var dto *BatchDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		members, err := repo.FindMembers(ctx, batchID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
		}
		if len(members) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}

		now := time.Now().UTC()
		moved, err := repo.MarkCompleted(ctx, batchID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete batch")
		}
		if moved == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no batch members are preparing")
		}

		ids := memberIDs(members)
		event := outbox.DomainEvent{
			EventType:     enums.EventBatchCompleted,
			AggregateType: enums.AggregateBatch,
			AggregateID:   batchID,
			Version:       1,
			Data:          payloads.BatchCompletedEvent{BatchID: batchID, OrderIDs: ids},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit batch completed")
		}
		dto = &BatchDTO{BatchID: batchID, OrderIDs: ids}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Not every member necessarily completed (cancelled ones stay put).
	got, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return dto, nil
	}
	return got, nil
}

// GetBatch returns the members plus the derived display status.
func (s *service) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error) {
	members, err := s.repo.FindMembers(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	if len(members) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	statuses := make([]enums.OrderStatus, 0, len(members))
	for _, m := range members {
		statuses = append(statuses, m.Status)
	}
	return &BatchDTO{
		BatchID:  batchID,
		Status:   DeriveBatchStatus(statuses),
		OrderIDs: memberIDs(members),
	}, nil
}

func memberIDs(members []models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}
