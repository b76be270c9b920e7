package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/internal/stock"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
	"github.com/obafemi/chopwell-backend/pkg/outbox/payloads"
	"github.com/obafemi/chopwell-backend/pkg/pagination"
)

// transitions is the full order state machine. Confirmed and transit are the
// same stage; which one an order enters depends on its type.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusTransit, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusTransit:   {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service drives the order lifecycle: draft management, payment-anchored
// confirmation with stock deduction, and the forward/cancel transitions.
type Service interface {
	CreatePending(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	ModifyPending(ctx context.Context, orderID uuid.UUID, items []OrderItemInput) (*OrderDTO, error)
	DeleteDraft(ctx context.Context, orderID uuid.UUID) error
	Confirm(ctx context.Context, orderID uuid.UUID, params ConfirmParams) (*OrderDTO, error)
	ConfirmTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, params ConfirmParams) (*models.Order, error)
	MaterializeFromPayment(ctx context.Context, carts []CreateOrderInput, payment PaymentDetails) ([]OrderDTO, error)
	PriceCarts(ctx context.Context, carts []CreateOrderInput) (decimal.Decimal, error)
	StartPreparing(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListKitchenQueue(ctx context.Context, params pagination.Params) (*KitchenQueueList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	stock  stockLedger
	events eventEmitter
	logg   *logger.Logger
}

// NewService constructs the order state machine service.
func NewService(repo Repository, tx txRunner, ledger stockLedger, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, stock: ledger, events: events, logg: logg}, nil
}

// CreatePending opens a draft order. No stock moves and no events fire until
// the order is confirmed.
func (s *service) CreatePending(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.OrderType != enums.OrderTypeOnline && input.OrderType != enums.OrderTypeOffline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order type")
	}
	if input.DeliveryFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, items, err := s.buildOrder(ctx, repo, input)
		if err != nil {
			return err
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(created), nil
}

// ModifyPending replaces the entire line set of a draft and recomputes totals.
func (s *service) ModifyPending(ctx context.Context, orderID uuid.UUID, items []OrderItemInput) (*OrderDTO, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be modified")
		}

		rebuilt, newItems, err := s.buildOrder(ctx, repo, CreateOrderInput{
			OrderType:   order.OrderType,
			CustomerID:  order.CustomerID,
			DeliveryFee: order.DeliveryFee,
			Items:       items,
		})
		if err != nil {
			return err
		}
		for i := range newItems {
			newItems[i].OrderID = order.ID
		}
		if err := repo.ReplaceItems(ctx, order.ID, newItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order items")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"subtotal": rebuilt.Subtotal,
			"tax":      rebuilt.Tax,
			"total":    rebuilt.Total,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
		}
		order.Subtotal = rebuilt.Subtotal
		order.Tax = rebuilt.Tax
		order.Total = rebuilt.Total
		order.Items = newItems
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(updated), nil
}

// DeleteDraft abandons an unpaid pending order.
func (s *service) DeleteDraft(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be deleted")
		}
		if err := repo.DeleteDraft(ctx, orderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft order")
		}
		return nil
	})
}

// Confirm runs a single-order confirmation in its own transaction.
func (s *service) Confirm(ctx context.Context, orderID uuid.UUID, params ConfirmParams) (*OrderDTO, error) {
	var confirmed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.ConfirmTx(ctx, tx, orderID, params)
		if err != nil {
			return err
		}
		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateReadCaches(ctx)
	return toOrderDTO(confirmed), nil
}

// ConfirmTx moves a pending order into the confirmed stage inside the caller's
// transaction: all-or-nothing stock deduction, order number assignment, status
// and payment stamps, and the order.confirmed event. Any error rolls the whole
// transaction back.
func (s *service) ConfirmTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, params ConfirmParams) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for order confirmation")
	}
	repo := s.repo.WithTx(tx)

	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot confirm order in status %s", order.Status))
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}

	number, err := repo.NextOrderNumber(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign order number")
	}
	orderNumber := FormatOrderNumber(number)

	lines := deductionLines(order.Items)
	if err := s.stock.ConfirmDeduct(ctx, tx, lines, stock.Ref{
		Note:      fmt.Sprintf("order %s confirmed", orderNumber),
		EnteredBy: params.Actor,
	}); err != nil {
		return nil, err
	}

	target := enums.OrderStatusConfirmed
	if order.OrderType == enums.OrderTypeOnline {
		target = enums.OrderStatusTransit
	}

	now := time.Now().UTC()
	batchID := params.BatchID
	updates := map[string]any{
		"order_number": orderNumber,
		"status":       target,
		"confirmed_at": now,
	}
	if batchID != nil {
		updates["batch_id"] = *batchID
		updates["batch_created_at"] = now
	}
	if params.PaymentReference != nil {
		updates["payment_reference"] = *params.PaymentReference
	}
	if params.TransactionRef != nil {
		updates["monnify_transaction_ref"] = *params.TransactionRef
	}
	if params.MarkPaid {
		updates["payment_status"] = enums.PaymentStatusPaid
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}

	order.OrderNumber = orderNumber
	order.Status = target
	order.ConfirmedAt = &now
	order.BatchID = batchID
	if batchID != nil {
		order.BatchCreatedAt = &now
	}
	order.PaymentReference = params.PaymentReference
	order.MonnifyTransactionRef = params.TransactionRef
	if params.MarkPaid {
		order.PaymentStatus = enums.PaymentStatusPaid
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderConfirmedEvent{
			OrderID:     order.ID,
			OrderNumber: orderNumber,
			OrderType:   order.OrderType,
			BatchID:     batchID,
			CustomerID:  order.CustomerID,
			Total:       order.Total.StringFixed(2),
			ItemCount:   len(order.Items),
			ConfirmedAt: now,
		},
	}
	if err := s.events.EmitIfNotExists(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order confirmed")
	}

	return order, nil
}

// MaterializeFromPayment turns a verified payment into confirmed orders, one
// per sub-cart, sharing a batch id, in a single transaction. Either every
// order lands confirmed or none exist.
func (s *service) MaterializeFromPayment(ctx context.Context, carts []CreateOrderInput, payment PaymentDetails) ([]OrderDTO, error) {
	if len(carts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no carts to materialize")
	}

	batchID := uuid.New()
	var results []OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, cart := range carts {
			order, items, err := s.buildOrder(ctx, repo, cart)
			if err != nil {
				return err
			}
			if _, err := repo.CreateOrder(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			for i := range items {
				items[i].OrderID = order.ID
			}
			if err := repo.CreateItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
			}

			confirmed, err := s.ConfirmTx(ctx, tx, order.ID, ConfirmParams{
				BatchID:          &batchID,
				PaymentReference: &payment.PaymentReference,
				TransactionRef:   &payment.TransactionRef,
				MarkPaid:         true,
				Actor:            payment.Actor,
			})
			if err != nil {
				return err
			}
			results = append(results, *toOrderDTO(confirmed))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.stock.InvalidateReadCaches(ctx)
	return results, nil
}

// StartPreparing moves a single confirmed-stage order into the kitchen,
// outside of any batch operation.
func (s *service) StartPreparing(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if !CanTransition(order.Status, enums.OrderStatusPreparing) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot start preparing order in status %s", order.Status))
		}
		previous := order.Status

		now := time.Now().UTC()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusPreparing,
			"preparing_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start preparing order")
		}
		order.Status = enums.OrderStatusPreparing
		order.PreparingAt = &now

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderStatusUpdatedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				PreviousStatus: previous,
				Status:         order.Status,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status updated")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(updated), nil
}

// Complete marks a preparing order as served/collected.
func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	var completed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if !CanTransition(order.Status, enums.OrderStatusCompleted) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot complete order in status %s", order.Status))
		}

		now := time.Now().UTC()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		order.Status = enums.OrderStatusCompleted
		order.CompletedAt = &now

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCompletedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BatchID:     order.BatchID,
				CompletedAt: now,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order completed")
		}
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(completed), nil
}

// Cancel aborts an order. Stock deducted at confirmation is restored exactly
// once, guarded by the persisted stock_restored flag. Cancelling a pending
// draft deletes it instead (no stock ever moved).
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	var cancelled *models.Order
	restoredStock := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order already %s", order.Status))
		}
		if order.Status == enums.OrderStatusPending {
			if err := repo.DeleteDraft(ctx, orderID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft order")
			}
			order.Status = enums.OrderStatusCancelled
			cancelled = order
			return nil
		}

		previous := order.Status
		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if !order.StockRestored {
			ref := stock.Ref{Note: fmt.Sprintf("order %s cancelled", order.OrderNumber)}
			for _, item := range order.Items {
				if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity, ref); err != nil {
					return err
				}
			}
			updates["stock_restored"] = true
			order.StockRestored = true
			restoredStock = true
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				PreviousStatus: previous,
				StockRestored:  order.StockRestored,
				Reason:         reason,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order cancelled")
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if restoredStock {
		s.stock.InvalidateReadCaches(ctx)
	}
	return toOrderDTO(cancelled), nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	return toOrderDTO(order), nil
}

func (s *service) ListKitchenQueue(ctx context.Context, params pagination.Params) (*KitchenQueueList, error) {
	list, err := s.repo.ListKitchenQueue(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list kitchen queue")
	}
	return list, nil
}

// PriceCarts computes the collectable total for a set of carts without
// persisting anything. Payment sessions use it to fix the expected amount
// before a virtual account is handed to the customer.
func (s *service) PriceCarts(ctx context.Context, carts []CreateOrderInput) (decimal.Decimal, error) {
	if len(carts) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "no carts to price")
	}
	total := decimal.Zero
	for _, cart := range carts {
		if cart.DeliveryFee.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
		}
		order, _, err := s.buildOrder(ctx, s.repo, cart)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(order.Total)
	}
	return total, nil
}

// buildOrder snapshots product names and prices into line items and computes
// the order totals in decimal arithmetic.
func (s *service) buildOrder(ctx context.Context, repo Repository, input CreateOrderInput) (*models.Order, []models.OrderItem, error) {
	if len(input.Items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		ids = append(ids, item.ProductID)
	}

	products, err := repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := byID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not available", item.ProductID))
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTotal := product.Price.Mul(qty)
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(product.TaxPerUnit.Mul(qty))
		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   item.Quantity,
			UnitPrice:  product.Price,
			TaxPerUnit: product.TaxPerUnit,
			TotalPrice: lineTotal,
			IsExtra:    product.IsExtra,
			OptionIDs:  item.OptionIDs,
		})
	}

	order := &models.Order{
		OrderType:     input.OrderType,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		CustomerID:    input.CustomerID,
		DeliveryFee:   input.DeliveryFee,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal.Add(tax).Add(input.DeliveryFee),
	}
	return order, items, nil
}

func deductionLines(items []models.OrderItem) []stock.Line {
	lines := make([]stock.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, stock.Line{ProductID: item.ProductID, Qty: item.Quantity})
	}
	return lines
}

// FormatOrderNumber renders the human-facing order number.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("CW-%06d", n)
}

func orderLookupError(err error) error {
	if IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func toOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		OrderType:     order.OrderType,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		CustomerID:    order.CustomerID,
		BatchID:       order.BatchID,
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		DeliveryFee:   order.DeliveryFee,
		Total:         order.Total,
		ConfirmedAt:   order.ConfirmedAt,
		CompletedAt:   order.CompletedAt,
		CancelledAt:   order.CancelledAt,
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TaxPerUnit: item.TaxPerUnit,
			TotalPrice: item.TotalPrice,
			IsExtra:    item.IsExtra,
			OptionIDs:  item.OptionIDs,
		})
	}
	return dto
}
