package items

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/purchase-orders-api/internal/export"
	"github.com/ksred/purchase-orders-api/internal/types"
	"github.com/ksred/purchase-orders-api/pkg/apperror"
	"github.com/ksred/purchase-orders-api/pkg/response"
)

// Service handles line item reconciliation for orders
type Service struct {
	db       *Database
	exporter *export.Writer
	newID    func() string
}

// NewService creates a new item service with the given database connection
// and export writer
func NewService(gormDB *gorm.DB, exporter *export.Writer) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		exporter: exporter,
		newID:    uuid.NewString,
	}
}

// UpsertItems creates or updates each proposed item by its request_item text.
// An existing item with the same text in the same order keeps its item_id and
// has every field replaced; otherwise a new item is created.
// Results mirror the input order. The first failure aborts the batch, leaving
// earlier writes committed.
func (s *Service) UpsertItems(ctx context.Context, orderID string, inputs []types.ItemInput) ([]types.OrderItem, error) {
	logger := log.With().
		Str("order_id", orderID).
		Str("service", "items").
		Logger()

	if strings.TrimSpace(orderID) == "" {
		return nil, apperror.Validation("upsert items", "order id is required")
	}
	for i, in := range inputs {
		if in.RequestItem == "" {
			return nil, apperror.Validation("upsert items", "item %d: request_item is required", i)
		}
		if in.Quantity == nil {
			return nil, apperror.Validation("upsert items", "item %d: quantity is required", i)
		}
		if *in.Quantity < 0 {
			return nil, apperror.Validation("upsert items", "item %d: quantity must be >= 0", i)
		}
	}

	results := make([]types.OrderItem, 0, len(inputs))
	created, updated := 0, 0

	for _, in := range inputs {
		existing, err := s.db.GetOrderItemByName(ctx, orderID, in.RequestItem)
		if err != nil {
			logger.Error().Err(err).Str("request_item", in.RequestItem).Msg("failed to look up item")
			return nil, fmt.Errorf("failed to look up item %q: %w", in.RequestItem, err)
		}

		if existing != nil {
			item, err := s.db.UpdateOrderItem(ctx, orderID, existing.ItemID, in.ReplacePatch())
			if err != nil {
				logger.Error().Err(err).Str("item_id", existing.ItemID).Msg("failed to update item")
				return nil, fmt.Errorf("failed to update item %q: %w", existing.ItemID, err)
			}
			results = append(results, *item)
			updated++
			continue
		}

		record := in.NewItem(orderID, s.newID(), types.Now())
		item, err := s.db.CreateOrderItem(ctx, &record)
		if err != nil {
			logger.Error().Err(err).Str("item_id", record.ItemID).Msg("failed to create item")
			return nil, fmt.Errorf("failed to create item %q: %w", in.RequestItem, err)
		}
		results = append(results, *item)
		created++
	}

	logger.Info().
		Int("created", created).
		Int("updated", updated).
		Msg("upserted order items")

	return results, nil
}

// GetItems returns all items of an order
func (s *Service) GetItems(ctx context.Context, orderID string) ([]types.OrderItem, error) {
	return s.db.GetOrderItems(ctx, orderID)
}

// EditItems applies field edits to existing items, then regenerates the
// order's CSV export. It returns the updated items, not the CSV.
// A failed export after successful edits is still reported as an error.
func (s *Service) EditItems(ctx context.Context, orderID string, edits []types.ItemEdit) ([]types.OrderItem, error) {
	logger := log.With().
		Str("order_id", orderID).
		Str("service", "items").
		Logger()

	for i, e := range edits {
		if e.ItemID == "" {
			return nil, apperror.Validation("edit items", "edit %d: item_id is required", i)
		}
		if e.Quantity != nil && *e.Quantity < 0 {
			return nil, apperror.Validation("edit items", "edit %d: quantity must be >= 0", i)
		}
	}

	updated := make([]types.OrderItem, 0, len(edits))
	for _, e := range edits {
		item, err := s.db.UpdateOrderItem(ctx, orderID, e.ItemID, e.Patch())
		if err != nil {
			logger.Error().Err(err).Str("item_id", e.ItemID).Msg("failed to edit item")
			return nil, fmt.Errorf("failed to edit item %q: %w", e.ItemID, err)
		}
		updated = append(updated, *item)
	}

	if _, err := s.ExportOrder(ctx, orderID); err != nil {
		return nil, err
	}

	logger.Info().Int("edited", len(updated)).Msg("edited order items")

	return updated, nil
}

// SetMatch records the reconciled catalog item for one line and refreshes the export
func (s *Service) SetMatch(ctx context.Context, orderID, itemID, match string) (*types.OrderItem, error) {
	item, err := s.db.UpdateItemMatch(ctx, orderID, itemID, match)
	if err != nil {
		return nil, fmt.Errorf("failed to set match on item %q: %w", itemID, err)
	}

	if _, err := s.ExportOrder(ctx, orderID); err != nil {
		return nil, err
	}

	return item, nil
}

// ExportOrder renders every item of the order, sorted by item_id, and uploads
// the CSV, replacing the previous snapshot
func (s *Service) ExportOrder(ctx context.Context, orderID string) (*types.ExportResponse, error) {
	all, err := s.db.GetAllOrderItemsForCsv(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for export: %w", err)
	}

	resp, err := s.exporter.Export(ctx, orderID, all)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("failed to export order")
		// edits are already committed, so any export fault is a backend fault
		return nil, &apperror.Error{Kind: apperror.KindBackendUnavailable, Op: "export order", Err: err}
	}
	return resp, nil
}

// LatestExport returns the last uploaded CSV for an order
func (s *Service) LatestExport(ctx context.Context, orderID string) ([]byte, error) {
	return s.exporter.Latest(ctx, orderID)
}

// GinHandlers contains HTTP handlers for order item endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for order item endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// UpsertItemsHandler handles POST requests with a JSON array of items
// URL parameter: order_id
func (h *GinHandlers) UpsertItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var inputs []types.ItemInput
		if err := c.ShouldBindJSON(&inputs); err != nil {
			response.Handle(c, nil, apperror.Validation("bind items", "%s", err.Error()))
			return
		}

		items, err := h.service.UpsertItems(c.Request.Context(), c.Param("order_id"), inputs)
		response.Handle(c, items, err)
	}
}

// GetItemsHandler handles GET requests for all items of an order
// URL parameter: order_id
func (h *GinHandlers) GetItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.service.GetItems(c.Request.Context(), c.Param("order_id"))
		response.Handle(c, items, err)
	}
}

// EditItemsHandler handles PATCH requests with a JSON array of edits
// URL parameter: order_id
func (h *GinHandlers) EditItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var edits []types.ItemEdit
		if err := c.ShouldBindJSON(&edits); err != nil {
			response.Handle(c, nil, apperror.Validation("bind edits", "%s", err.Error()))
			return
		}

		items, err := h.service.EditItems(c.Request.Context(), c.Param("order_id"), edits)
		response.Handle(c, items, err)
	}
}

type matchRequest struct {
	Match string `json:"match" binding:"required"`
}

// SetMatchHandler handles PATCH requests with a {"match": ...} body
// URL parameters: order_id, item_id
func (h *GinHandlers) SetMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req matchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Handle(c, nil, apperror.Validation("bind match", "%s", err.Error()))
			return
		}

		item, err := h.service.SetMatch(c.Request.Context(), c.Param("order_id"), c.Param("item_id"), req.Match)
		response.Handle(c, item, err)
	}
}

// ExportHandler streams the last uploaded CSV snapshot of an order
// URL parameter: order_id
func (h *GinHandlers) ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		body, err := h.service.LatestExport(c.Request.Context(), orderID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orderID+".csv"))
		c.Data(http.StatusOK, export.ContentType, body)
	}
}
