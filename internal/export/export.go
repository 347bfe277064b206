package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ksred/purchase-orders-api/internal/blobstore"
	"github.com/ksred/purchase-orders-api/internal/types"
)

const ContentType = "text/csv"

// Header is the fixed column layout of an order export
var Header = []string{"Item ID", "Request Item", "Quantity", "UOM", "Price Per Unit", "Amount", "Match"}

// Key returns the blob key of the export snapshot for an order
func Key(orderID string) string {
	return "exports/" + orderID + ".csv"
}

// RenderCSV writes the header and one row per item, in the given order.
// Missing optional fields render as empty cells.
func RenderCSV(items []types.OrderItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, item := range items {
		row := []string{
			item.ItemID,
			item.RequestItem,
			strconv.Itoa(item.Quantity),
			stringOrEmpty(item.UOM),
			amountOrEmpty(item.PricePerUnit),
			amountOrEmpty(item.Amount),
			stringOrEmpty(item.Matches),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func amountOrEmpty(a *types.Amount) string {
	if a == nil {
		return ""
	}
	return a.String()
}

// Writer renders order snapshots and uploads them to blob storage
type Writer struct {
	store blobstore.Store
}

// NewWriter creates a Writer backed by store
func NewWriter(store blobstore.Store) *Writer {
	return &Writer{store: store}
}

// Export uploads a CSV of items under the order's key, replacing the previous
// snapshot. Items are expected to be sorted already.
func (w *Writer) Export(ctx context.Context, orderID string, items []types.OrderItem) (*types.ExportResponse, error) {
	body, err := RenderCSV(items)
	if err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}

	key := Key(orderID)
	if err := w.store.Put(ctx, key, ContentType, body); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	log.Info().
		Str("order_id", orderID).
		Str("key", key).
		Int("rows", len(items)).
		Msg("uploaded order export")

	return &types.ExportResponse{OrderID: orderID, Key: key, Rows: len(items)}, nil
}

// Latest returns the last uploaded snapshot for an order
func (w *Writer) Latest(ctx context.Context, orderID string) ([]byte, error) {
	return w.store.Get(ctx, Key(orderID))
}
