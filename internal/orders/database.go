package orders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ksred/purchase-orders-api/internal/types"
	"github.com/ksred/purchase-orders-api/pkg/apperror"
)

// Database is the storage gateway for the orders table
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateOrder(ctx context.Context, order *types.Order) (*types.Order, error) {
	if err := d.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("create order", err)
		}
		return nil, apperror.Backend("create order", err)
	}
	return order, nil
}

func (d *Database) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	var order types.Order
	if err := d.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("get order", "order %q not found", orderID)
		}
		return nil, apperror.Backend("get order", err)
	}
	return &order, nil
}

// ListOrders scans the table, optionally keeping only orders of one type.
// An empty filter or "all" returns everything.
func (d *Database) ListOrders(ctx context.Context, filterType string) ([]types.Order, error) {
	orders := make([]types.Order, 0)
	q := d.db.WithContext(ctx)
	if filterType != "" && filterType != "all" {
		q = q.Where("type = ?", filterType)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, apperror.Backend("list orders", err)
	}
	return orders, nil
}

// SearchOrders does a full scan and a case-insensitive substring match on
// id, type and date in process. Fine for the handful of orders this serves.
func (d *Database) SearchOrders(ctx context.Context, query string) ([]types.Order, error) {
	all, err := d.ListOrders(ctx, "")
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]types.Order, 0)
	for _, o := range all {
		if strings.Contains(strings.ToLower(o.ID), needle) ||
			strings.Contains(strings.ToLower(o.Type), needle) ||
			strings.Contains(strings.ToLower(o.Date), needle) {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

// UpdateOrderStatus sets status and updated_at, then re-reads the row
func (d *Database) UpdateOrderStatus(ctx context.Context, orderID, status string) (*types.Order, error) {
	result := d.db.WithContext(ctx).Model(&types.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": types.Now(),
		})

	if result.Error != nil {
		return nil, apperror.Backend("update order status", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("update order status", "order %q not found", orderID)
	}

	return d.GetOrder(ctx, orderID)
}
