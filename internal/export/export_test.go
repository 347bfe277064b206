package export

import (
	"context"
	"strings"
	"testing"

	"github.com/ksred/purchase-orders-api/internal/blobstore"
	"github.com/ksred/purchase-orders-api/internal/types"
)

func strPtr(s string) *string { return &s }

func amountPtr(s string) *types.Amount {
	a := types.MustAmount(s)
	return &a
}

func TestRenderCSVRow(t *testing.T) {
	items := []types.OrderItem{{
		ItemID:       "a",
		RequestItem:  "Bolt",
		Quantity:     5,
		UOM:          strPtr("ea"),
		PricePerUnit: amountPtr("1.00"),
		Amount:       amountPtr("5.00"),
		Matches:      strPtr("Bolt-Std"),
	}}

	out, err := RenderCSV(items)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	if lines[0] != "Item ID,Request Item,Quantity,UOM,Price Per Unit,Amount,Match" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "a,Bolt,5,ea,1.00,5.00,Bolt-Std" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestRenderCSVEmptyOptionalsAndQuoting(t *testing.T) {
	items := []types.OrderItem{
		{ItemID: "b", RequestItem: `Brass Nut 1/2" 20mm, Galvan`, Quantity: 36},
	}

	out, err := RenderCSV(items)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	want := `b,"Brass Nut 1/2"" 20mm, Galvan",36,,,,`
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
	if strings.Contains(string(out), "null") || strings.Contains(string(out), "<nil>") {
		t.Errorf("missing fields must be empty: %q", out)
	}
}

func TestWriterExportOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w := NewWriter(store)

	first := []types.OrderItem{{ItemID: "a", RequestItem: "Bolt", Quantity: 1}}
	if _, err := w.Export(ctx, "po-1", first); err != nil {
		t.Fatalf("Export: %v", err)
	}

	second := []types.OrderItem{
		{ItemID: "a", RequestItem: "Bolt", Quantity: 2},
		{ItemID: "b", RequestItem: "Nut", Quantity: 3},
	}
	resp, err := w.Export(ctx, "po-1", second)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if resp.Key != "exports/po-1.csv" || resp.Rows != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	body, err := w.Latest(ctx, "po-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if strings.Count(string(body), "\n") != 3 || !strings.Contains(string(body), "b,Nut,3") {
		t.Fatalf("snapshot not replaced: %q", body)
	}
}
