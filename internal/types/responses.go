package types

// ExportResponse describes an uploaded CSV snapshot
type ExportResponse struct {
	OrderID string `json:"order_id"`
	Key     string `json:"key"`
	Rows    int    `json:"rows"`
}

// StatusUpdateRequest is the body of an order status change
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}
