package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
	"github.com/obafemi/chopwell-backend/pkg/outbox/payloads"
)

// Service is the single write path for product stock. Every mutation is a
// compare-and-decrement (or increment) inside the caller's transaction, keeps
// status in lockstep with units, and appends an audit entry.
type Service interface {
	Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref Ref) error
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref Ref) error
	ConfirmDeduct(ctx context.Context, tx *gorm.DB, lines []Line, ref Ref) error
	BulkDeduct(ctx context.Context, lines []Line, ref Ref) ([]BulkResult, error)
	InvalidateReadCaches(ctx context.Context)
}

// Line is one product/quantity pair in a multi-product mutation.
type Line struct {
	ProductID uuid.UUID
	Qty       int
}

// Ref annotates the audit trail with the origin of a mutation.
type Ref struct {
	Note      string
	EnteredBy string
}

// BulkResult reports the outcome for one line of a best-effort deduction.
type BulkResult struct {
	ProductID uuid.UUID `json:"productId"`
	Qty       int       `json:"qty"`
	Deducted  bool      `json:"deducted"`
	Reason    string    `json:"reason,omitempty"`
}

// ShortfallDetail is attached to INSUFFICIENT_STOCK errors so the API can say
// exactly which product fell short.
type ShortfallDetail struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cacheInvalidator interface {
	InvalidateProductCaches(ctx context.Context) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	dbClient txRunner
	events   eventEmitter
	cache    cacheInvalidator
	logg     *logger.Logger
}

// NewService constructs the stock ledger service.
func NewService(dbClient txRunner, events eventEmitter, cache cacheInvalidator, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{dbClient: dbClient, events: events, cache: cache, logg: logg}, nil
}

// Deduct removes qty units from a product. The decrement only lands when the
// shelf still holds enough units; otherwise the product is untouched and an
// INSUFFICIENT_STOCK error is returned.
func (s *service) Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref Ref) error {
	if err := validateMutation(tx, productID, qty); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET units = units - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND units >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct stock")
	}
	if res.RowsAffected == 0 {
		product, err := loadProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails([]ShortfallDetail{{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: qty,
				Available: product.Units,
			}})
	}

	return s.finishMutation(ctx, tx, productID, qty, enums.StockEntryTypeRemove, ref)
}

// Restore puts qty units back on the shelf (cancellation after deduction).
func (s *service) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref Ref) error {
	if err := validateMutation(tx, productID, qty); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET units = units + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return s.finishMutation(ctx, tx, productID, qty, enums.StockEntryTypeAdd, ref)
}

// ConfirmDeduct deducts every line or none: the first shortfall aborts and the
// caller's transaction rollback undoes the lines already applied.
func (s *service) ConfirmDeduct(ctx context.Context, tx *gorm.DB, lines []Line, ref Ref) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no stock lines to deduct")
	}
	for _, line := range lines {
		if err := s.Deduct(ctx, tx, line.ProductID, line.Qty, ref); err != nil {
			return err
		}
	}
	return nil
}

// BulkDeduct applies each line in its own transaction and keeps going past
// shortfalls. Used for manual stock-keeping corrections, not order confirms.
func (s *service) BulkDeduct(ctx context.Context, lines []Line, ref Ref) ([]BulkResult, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no stock lines to deduct")
	}

	results := make([]BulkResult, 0, len(lines))
	var errs error
	for _, line := range lines {
		result := BulkResult{ProductID: line.ProductID, Qty: line.Qty}
		err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			return s.Deduct(ctx, tx, line.ProductID, line.Qty, ref)
		})
		switch {
		case err == nil:
			result.Deducted = true
		case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeInsufficientStock:
			result.Reason = "insufficient_stock"
		case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
			result.Reason = "not_found"
		default:
			result.Reason = "error"
			errs = multierr.Append(errs, fmt.Errorf("deduct %s: %w", line.ProductID, err))
		}
		results = append(results, result)
	}

	if errs != nil {
		s.logg.Error(ctx, "bulk stock deduction had failures", errs)
	}
	s.InvalidateReadCaches(ctx)
	return results, errs
}

// InvalidateReadCaches drops cached product reads. Callers that manage their
// own transaction invoke this after commit.
func (s *service) InvalidateReadCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProductCaches(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "product cache invalidation failed")
	}
}

// finishMutation re-derives status from the post-mutation row, appends the
// audit entry, and raises a low-stock alert when the product leaves in_stock.
func (s *service) finishMutation(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, entryType enums.StockEntryType, ref Ref) error {
	product, err := loadProduct(ctx, tx, productID)
	if err != nil {
		return err
	}

	priorUnits := product.Units - qty
	if entryType == enums.StockEntryTypeRemove {
		priorUnits = product.Units + qty
	}
	priorStatus := enums.DeriveStockStatus(priorUnits, product.LowStockThreshold)
	newStatus := enums.DeriveStockStatus(product.Units, product.LowStockThreshold)

	if newStatus != product.Status {
		if err := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", productID).
			Update("status", newStatus).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock status")
		}
	}

	entry := models.StockEntry{
		ProductID: productID,
		Quantity:  qty,
		EntryType: entryType,
		Notes:     ref.Note,
		EnteredBy: ref.EnteredBy,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock entry")
	}

	if entryType == enums.StockEntryTypeRemove && priorStatus == enums.StockStatusInStock && newStatus != enums.StockStatusInStock {
		event := outbox.DomainEvent{
			EventType:     enums.EventStockLow,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Version:       1,
			Data: payloads.StockLowEvent{
				ProductID:         productID,
				Name:              product.Name,
				Units:             product.Units,
				LowStockThreshold: product.LowStockThreshold,
				Status:            newStatus,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit low stock event")
		}
	}

	return nil
}

func validateMutation(tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock mutation")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func loadProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}
