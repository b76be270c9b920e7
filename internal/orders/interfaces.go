package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/internal/stock"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/outbox"
	"github.com/obafemi/chopwell-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) ([]models.Order, error)
	FindByBatchID(ctx context.Context, batchID uuid.UUID) ([]models.Order, error)
	ExistsByTransactionRef(ctx context.Context, transactionRef string) (bool, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	DeleteDraft(ctx context.Context, orderID uuid.UUID) error
	NextOrderNumber(ctx context.Context) (int64, error)
	ListKitchenQueue(ctx context.Context, params pagination.Params) (*KitchenQueueList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockLedger is the slice of the stock service the state machine drives.
type stockLedger interface {
	ConfirmDeduct(ctx context.Context, tx *gorm.DB, lines []stock.Line, ref stock.Ref) error
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref stock.Ref) error
	InvalidateReadCaches(ctx context.Context)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
