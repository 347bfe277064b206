package items

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/ksred/purchase-orders-api/internal/types"
	"github.com/ksred/purchase-orders-api/pkg/apperror"
)

// Database is the storage gateway for the order_items table.
// Rows are keyed by (order_id, item_id).
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateOrderItem(ctx context.Context, item *types.OrderItem) (*types.OrderItem, error) {
	if err := d.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("create order item", err)
		}
		return nil, apperror.Backend("create order item", err)
	}
	return item, nil
}

func (d *Database) GetOrderItems(ctx context.Context, orderID string) ([]types.OrderItem, error) {
	items := make([]types.OrderItem, 0)
	if err := d.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, apperror.Backend("get order items", err)
	}
	return items, nil
}

func (d *Database) GetOrderItem(ctx context.Context, orderID, itemID string) (*types.OrderItem, error) {
	var item types.OrderItem
	err := d.db.WithContext(ctx).
		Where("order_id = ? AND item_id = ?", orderID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("get order item", "item %q not found in order %q", itemID, orderID)
		}
		return nil, apperror.Backend("get order item", err)
	}
	return &item, nil
}

// GetOrderItemByName returns the first item of the order whose request_item
// matches exactly (case-sensitive), or nil when there is none
func (d *Database) GetOrderItemByName(ctx context.Context, orderID, requestItem string) (*types.OrderItem, error) {
	var found []types.OrderItem
	err := d.db.WithContext(ctx).
		Where("order_id = ? AND request_item = ?", orderID, requestItem).
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, apperror.Backend("get order item by name", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// UpdateOrderItem applies a partial update, stamps updated_at and returns the
// row as stored. A missing row is an error, never an implicit insert.
func (d *Database) UpdateOrderItem(ctx context.Context, orderID, itemID string, patch types.ItemPatch) (*types.OrderItem, error) {
	cols := patch.Columns()
	cols["updated_at"] = types.Now()

	result := d.db.WithContext(ctx).Model(&types.OrderItem{}).
		Where("order_id = ? AND item_id = ?", orderID, itemID).
		Updates(cols)

	if result.Error != nil {
		return nil, apperror.Backend("update order item", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("update order item", "item %q not found in order %q", itemID, orderID)
	}

	return d.GetOrderItem(ctx, orderID, itemID)
}

// UpdateItemMatch sets only the matches attribute
func (d *Database) UpdateItemMatch(ctx context.Context, orderID, itemID, match string) (*types.OrderItem, error) {
	return d.UpdateOrderItem(ctx, orderID, itemID, types.ItemPatch{Matches: &match})
}

// GetAllOrderItemsForCsv returns the order's items sorted by item_id so
// exports are stable across backends and collations
func (d *Database) GetAllOrderItemsForCsv(ctx context.Context, orderID string) ([]types.OrderItem, error) {
	items, err := d.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ItemID < items[j].ItemID
	})
	return items, nil
}
