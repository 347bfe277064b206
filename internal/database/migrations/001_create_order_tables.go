package migrations

import (
	"github.com/ksred/purchase-orders-api/internal/types"
	"gorm.io/gorm"
)

// CreateOrderTables creates the orders table (keyed by id) and the
// order_items table (keyed by order_id, item_id)
func CreateOrderTables(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.Order{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&types.OrderItem{}); err != nil {
		return err
	}

	return nil
}
