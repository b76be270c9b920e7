package batches

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository builds a batches repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindMembers(ctx context.Context, batchID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkPreparing advances every confirmed-stage member in one statement.
func (r *Repository) MarkPreparing(ctx context.Context, batchID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("batch_id = ? AND status IN ?", batchID, []enums.OrderStatus{
			enums.OrderStatusConfirmed,
			enums.OrderStatusTransit,
		}).
		Updates(map[string]any{
			"status":       enums.OrderStatusPreparing,
			"preparing_at": at,
		})
	return res.RowsAffected, res.Error
}

// MarkCompleted finishes every preparing member in one statement.
func (r *Repository) MarkCompleted(ctx context.Context, batchID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("batch_id = ? AND status = ?", batchID, enums.OrderStatusPreparing).
		Updates(map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": at,
		})
	return res.RowsAffected, res.Error
}
