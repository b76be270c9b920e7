package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/obafemi/chopwell-backend/internal/stock"
	"github.com/obafemi/chopwell-backend/pkg/db/models"
	"github.com/obafemi/chopwell-backend/pkg/enums"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	pkgredis "github.com/obafemi/chopwell-backend/pkg/redis"
)

const cacheTTL = 5 * time.Minute

// ProductDTO is the read shape of a menu item.
type ProductDTO struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Units             int               `json:"units"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	Status            enums.StockStatus `json:"status"`
	Price             decimal.Decimal   `json:"price"`
	TaxPerUnit        decimal.Decimal   `json:"tax_per_unit"`
	IsExtra           bool              `json:"is_extra"`
	IsActive          bool              `json:"is_active"`
}

// Service serves the product read side. Listings are cached in redis and the
// stock ledger invalidates those keys after every mutation.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	LowStockAlerts(ctx context.Context) ([]ProductDTO, error)
	BulkDeduct(ctx context.Context, lines []stock.Line, ref stock.Ref) ([]stock.BulkResult, error)
	Restock(ctx context.Context, productID uuid.UUID, qty int, ref stock.Ref) (*ProductDTO, error)
}

// readCache is the small slice of redis the read side needs.
type readCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	ledger stock.Service
	cache  readCache
	logg   *logger.Logger
}

// NewService constructs the product read service. cache may be nil.
func NewService(repo *Repository, tx txRunner, ledger stock.Service, cache readCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, cache: cache, logg: logg}, nil
}

// List returns all active products, cache-aside on the product list key.
func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	key := pkgredis.BuildKey("products", "list")
	if cached, ok := s.cacheRead(ctx, key); ok {
		return cached, nil
	}

	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	dtos := toDTOs(rows)
	s.cacheWrite(ctx, key, dtos)
	return dtos, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := toDTO(*row)
	return &dto, nil
}

// LowStockAlerts lists products at or below their threshold, cache-aside on
// the alerts key.
func (s *service) LowStockAlerts(ctx context.Context) ([]ProductDTO, error) {
	key := pkgredis.BuildKey("low_stock", "alerts")
	if cached, ok := s.cacheRead(ctx, key); ok {
		return cached, nil
	}

	rows, err := s.repo.ListBelowThreshold(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock products")
	}
	dtos := toDTOs(rows)
	s.cacheWrite(ctx, key, dtos)
	return dtos, nil
}

// BulkDeduct passes a manual stock-keeping correction through to the ledger.
func (s *service) BulkDeduct(ctx context.Context, lines []stock.Line, ref stock.Ref) ([]stock.BulkResult, error) {
	return s.ledger.BulkDeduct(ctx, lines, ref)
}

// Restock adds units back onto the shelf via the ledger in its own tx.
func (s *service) Restock(ctx context.Context, productID uuid.UUID, qty int, ref stock.Ref) (*ProductDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.Restore(ctx, tx, productID, qty, ref)
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateReadCaches(ctx)
	return s.Get(ctx, productID)
}

func (s *service) cacheRead(ctx context.Context, key string) ([]ProductDTO, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "product cache read failed")
		}
		return nil, false
	}
	var dtos []ProductDTO
	if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
		return nil, false
	}
	return dtos, true
}

func (s *service) cacheWrite(ctx context.Context, key string, dtos []ProductDTO) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(dtos)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "product cache write failed")
	}
}

func toDTOs(rows []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row))
	}
	return dtos
}

func toDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:                p.ID,
		Name:              p.Name,
		Units:             p.Units,
		LowStockThreshold: p.LowStockThreshold,
		Status:            p.Status,
		Price:             p.Price,
		TaxPerUnit:        p.TaxPerUnit,
		IsExtra:           p.IsExtra,
		IsActive:          p.IsActive,
	}
}
