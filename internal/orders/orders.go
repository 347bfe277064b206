package orders

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/purchase-orders-api/internal/blobstore"
	"github.com/ksred/purchase-orders-api/internal/types"
	"github.com/ksred/purchase-orders-api/pkg/apperror"
	"github.com/ksred/purchase-orders-api/pkg/response"
)

// maxRequestFileSize caps an uploaded request document
const maxRequestFileSize = 20 << 20

// IngestRequest is an uploaded request document that starts a new order
type IngestRequest struct {
	Filename    string
	ContentType string
	Body        []byte
	Type        string
}

// Service handles order ingest and status changes
type Service struct {
	db    *Database
	blobs blobstore.Store
}

// NewService creates a new order service
func NewService(gormDB *gorm.DB, blobs blobstore.Store) *Service {
	return &Service{
		db:    NewDatabase(gormDB),
		blobs: blobs,
	}
}

// RequestFileKey is where the request document of an order is stored
func RequestFileKey(orderID, filename string) string {
	return "requests/" + orderID + "/" + path.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// Ingest stores the request document and creates a pending order for it
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*types.Order, error) {
	if len(req.Body) == 0 {
		return nil, apperror.Validation("ingest order", "request file is empty")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, apperror.Validation("ingest order", "request file name is required")
	}

	orderID := uuid.New().String()
	logger := log.With().
		Str("order_id", orderID).
		Str("service", "orders").
		Logger()

	key := RequestFileKey(orderID, req.Filename)
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.blobs.Put(ctx, key, contentType, req.Body); err != nil {
		logger.Error().Err(err).Msg("failed to upload request file")
		return nil, fmt.Errorf("failed to upload request file: %w", err)
	}

	now := time.Now().UTC()
	order := &types.Order{
		ID:          orderID,
		Date:        now.Format(types.DateLayout),
		Status:      types.OrderStatusPending,
		Type:        req.Type,
		RequestFile: key,
		CreatedAt:   now.Format(types.TimestampLayout),
		UpdatedAt:   now.Format(types.TimestampLayout),
	}

	created, err := s.db.CreateOrder(ctx, order)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logger.Info().
		Str("request_file", key).
		Int("size", len(req.Body)).
		Msg("order ingested")

	return created, nil
}

// GetOrder retrieves an order by its ID
func (s *Service) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	return s.db.GetOrder(ctx, orderID)
}

// ListOrders returns all orders, or those of one type
func (s *Service) ListOrders(ctx context.Context, filterType string) ([]types.Order, error) {
	return s.db.ListOrders(ctx, filterType)
}

// SearchOrders matches query against order id, type and date
func (s *Service) SearchOrders(ctx context.Context, query string) ([]types.Order, error) {
	if strings.TrimSpace(query) == "" {
		return s.db.ListOrders(ctx, "")
	}
	return s.db.SearchOrders(ctx, query)
}

// UpdateStatus moves an order to a new status and returns the stored record
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*types.Order, error) {
	if !types.ValidOrderStatus(status) {
		return nil, apperror.Validation("update order status", "unknown status %q", status)
	}

	order, err := s.db.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		log.Error().Err(err).
			Str("order_id", orderID).
			Str("status", status).
			Msg("failed to update order status")
		return nil, err
	}

	log.Info().
		Str("order_id", orderID).
		Str("status", status).
		Msg("order status updated")

	return order, nil
}

// GinHandlers contains HTTP handlers for order endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for order endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateOrderHandler handles multipart POST requests carrying a request_file
// and an optional type form field
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("request_file")
		if err != nil {
			response.BadRequest(c, "request_file is required")
			return
		}
		if fh.Size > maxRequestFileSize {
			response.BadRequest(c, "request_file is too large")
			return
		}

		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		defer f.Close()

		body, err := io.ReadAll(f)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		order, err := h.service.Ingest(c.Request.Context(), IngestRequest{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        body,
			Type:        c.PostForm("type"),
		})
		response.Handle(c, order, err)
	}
}

// ListOrdersHandler handles GET requests, filtered by the type query parameter
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.service.ListOrders(c.Request.Context(), c.Query("type"))
		response.Handle(c, orders, err)
	}
}

// SearchOrdersHandler handles GET requests with a q query parameter
func (h *GinHandlers) SearchOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.service.SearchOrders(c.Request.Context(), c.Query("q"))
		response.Handle(c, orders, err)
	}
}

// GetOrderHandler handles GET requests for one order
// URL parameter: order_id
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := h.service.GetOrder(c.Request.Context(), c.Param("order_id"))
		response.Handle(c, order, err)
	}
}

// UpdateStatusHandler handles PATCH requests with a {"status": ...} body
// URL parameter: order_id
func (h *GinHandlers) UpdateStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.StatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		order, err := h.service.UpdateStatus(c.Request.Context(), c.Param("order_id"), req.Status)
		response.Handle(c, order, err)
	}
}
