package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	"github.com/obafemi/chopwell-backend/pkg/pagination"
)

const orderNumberCounter = "order_number"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// ReplaceItems swaps the entire line set of a draft order.
func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.CreateItems(ctx, items)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, reference string) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_reference = ?", reference).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByBatchID(ctx context.Context, batchID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ExistsByTransactionRef(ctx context.Context, transactionRef string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("monnify_transaction_ref = ?", transactionRef).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteDraft removes a pending order and its items.
func (r *repository) DeleteDraft(ctx context.Context, orderID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextOrderNumber bumps the order-number counter inside the repository's
// transaction; the row lock keeps concurrent confirms from sharing a number.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE counters SET value = value + 1 WHERE name = ?
	`, orderNumberCounter)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		counter := models.Counter{Name: orderNumberCounter, Value: 1}
		if err := r.db.WithContext(ctx).Create(&counter).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}

	var counter models.Counter
	if err := r.db.WithContext(ctx).First(&counter, "name = ?", orderNumberCounter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// ListKitchenQueue pages through confirmed-stage and preparing orders, oldest
// first, using a created_at/id cursor.
func (r *repository) ListKitchenQueue(ctx context.Context, params pagination.Params) (*KitchenQueueList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Items").
		Where("status IN ?", []enums.OrderStatus{
			enums.OrderStatusConfirmed,
			enums.OrderStatusTransit,
			enums.OrderStatusPreparing,
		}).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	if cursor != nil {
		query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &KitchenQueueList{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	for _, row := range rows {
		totalItems := 0
		for _, item := range row.Items {
			totalItems += item.Quantity
		}
		list.Orders = append(list.Orders, KitchenQueueEntry{
			ID:          row.ID,
			OrderNumber: row.OrderNumber,
			OrderType:   row.OrderType,
			Status:      row.Status,
			BatchID:     row.BatchID,
			TotalItems:  totalItems,
			ConfirmedAt: row.ConfirmedAt,
			CreatedAt:   row.CreatedAt,
		})
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

// IsNotFound reports whether the error is the repository's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
