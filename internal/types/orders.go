package types

import (
	"time"
)

// TimestampLayout is the ISO-8601 text form used for created_at/updated_at
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// DateLayout is the form of Order.Date
const DateLayout = "2006-01-02"

// Now returns the current UTC time as stored on every write
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusReview     = "review"
	OrderStatusProcessed  = "processed"
	OrderStatusFinalized  = "finalized"
	OrderStatusFailed     = "failed"
)

// ValidOrderStatus reports whether status is one the API accepts
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusReview,
		OrderStatusProcessed, OrderStatusFinalized, OrderStatusFailed:
		return true
	}
	return false
}

// Order is a purchase request created when a request file is ingested
type Order struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Type        string `json:"type,omitempty"`
	RequestFile string `json:"request_file"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// OrderItem is one line of an order, keyed by (order_id, item_id)
type OrderItem struct {
	OrderID      string  `gorm:"primaryKey" json:"order_id"`
	ItemID       string  `gorm:"primaryKey" json:"item_id"`
	RequestItem  string  `gorm:"not null" json:"request_item"`
	Quantity     int     `json:"quantity"`
	UOM          *string `gorm:"column:uom" json:"uom"`
	PricePerUnit *Amount `gorm:"type:text" json:"price_per_unit"`
	Amount       *Amount `gorm:"type:text" json:"amount"`
	Matches      *string `json:"matches"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// ItemInput is a proposed line item in an upsert batch
type ItemInput struct {
	RequestItem  string  `json:"request_item" binding:"required"`
	Quantity     *int    `json:"quantity" binding:"required,gte=0"`
	UOM          *string `json:"uom"`
	PricePerUnit *Amount `json:"price_per_unit"`
	Amount       *Amount `json:"amount"`
	Matches      *string `json:"matches"`
}

// NewItem builds the full record for a first-time insert
func (in ItemInput) NewItem(orderID, itemID, now string) OrderItem {
	quantity := 0
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	return OrderItem{
		OrderID:      orderID,
		ItemID:       itemID,
		RequestItem:  in.RequestItem,
		Quantity:     quantity,
		UOM:          in.UOM,
		PricePerUnit: in.PricePerUnit,
		Amount:       in.Amount,
		Matches:      in.Matches,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ReplacePatch overwrites every model field of an existing row with the input,
// clearing optional attributes the input leaves out
func (in ItemInput) ReplacePatch() ItemPatch {
	requestItem := in.RequestItem
	return ItemPatch{
		RequestItem:  &requestItem,
		Quantity:     in.Quantity,
		UOM:          in.UOM,
		PricePerUnit: in.PricePerUnit,
		Amount:       in.Amount,
		Matches:      in.Matches,
		Replace:      true,
	}
}

// ItemEdit is one entry of a multi-item edit. Match is the legacy name
// for Matches and wins when both are sent. A null "match" decodes the same
// as an absent one, so it neither clears matches nor overrides a "matches"
// value in the same edit.
type ItemEdit struct {
	ItemID       string  `json:"item_id"`
	RequestItem  *string `json:"request_item"`
	Quantity     *int    `json:"quantity" binding:"omitempty,gte=0"`
	UOM          *string `json:"uom"`
	PricePerUnit *Amount `json:"price_per_unit"`
	Amount       *Amount `json:"amount"`
	Matches      *string `json:"matches"`
	Match        *string `json:"match,omitempty"`
}

// Normalize moves a legacy "match" value into Matches
func (e ItemEdit) Normalize() ItemEdit {
	if e.Match != nil {
		e.Matches = e.Match
		e.Match = nil
	}
	return e
}

// Patch returns the partial update described by the edit
func (e ItemEdit) Patch() ItemPatch {
	e = e.Normalize()
	return ItemPatch{
		RequestItem:  e.RequestItem,
		Quantity:     e.Quantity,
		UOM:          e.UOM,
		PricePerUnit: e.PricePerUnit,
		Amount:       e.Amount,
		Matches:      e.Matches,
	}
}

// ItemPatch enumerates the attributes an item update may touch.
// Key columns are deliberately absent. Nil fields are left alone unless
// Replace is set, in which case nil optional fields are cleared.
type ItemPatch struct {
	RequestItem  *string
	Quantity     *int
	UOM          *string
	PricePerUnit *Amount
	Amount       *Amount
	Matches      *string
	Replace      bool
}

// Columns returns the column/value pairs to write, without updated_at
func (p ItemPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.RequestItem != nil {
		cols["request_item"] = *p.RequestItem
	}
	if p.Quantity != nil {
		cols["quantity"] = *p.Quantity
	}
	setOptional(cols, "uom", p.UOM, p.Replace)
	setOptional(cols, "matches", p.Matches, p.Replace)
	setAmount(cols, "price_per_unit", p.PricePerUnit, p.Replace)
	setAmount(cols, "amount", p.Amount, p.Replace)
	return cols
}

func setOptional(cols map[string]interface{}, name string, v *string, replace bool) {
	switch {
	case v != nil:
		cols[name] = *v
	case replace:
		cols[name] = nil
	}
}

func setAmount(cols map[string]interface{}, name string, v *Amount, replace bool) {
	switch {
	case v != nil:
		cols[name] = v.String()
	case replace:
		cols[name] = nil
	}
}
