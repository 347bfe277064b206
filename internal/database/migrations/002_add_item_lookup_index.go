package migrations

import "gorm.io/gorm"

// AddItemLookupIndex adds the indexes behind the upsert-by-name lookup and the
// order list filters. The (order_id, request_item) index is not unique: the one
// item per description rule is enforced by the upsert workflow only.
func AddItemLookupIndex(db *gorm.DB) error {
	indexes := []string{
		// Upsert-by-name lookup
		`CREATE INDEX IF NOT EXISTS idx_order_items_request_item
		 ON order_items(order_id, request_item)`,

		// List filter
		`CREATE INDEX IF NOT EXISTS idx_orders_type
		 ON orders(type)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_status
		 ON orders(status)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
