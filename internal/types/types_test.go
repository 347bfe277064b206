package types

import (
	"encoding/json"
	"testing"
)

func TestAmountKeepsScale(t *testing.T) {
	cases := map[string]string{
		`11.48`:    "11.48",
		`"11.48"`:  "11.48",
		`"1.00"`:   "1.00",
		`5`:        "5",
		`413.280`:  "413.280",
		`"-0.10"`:  "-0.10",
		`0.000001`: "0.000001",
	}
	for in, want := range cases {
		var a Amount
		if err := json.Unmarshal([]byte(in), &a); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if got := a.String(); got != want {
			t.Errorf("String(%s) = %q, want %q", in, got, want)
		}
		out, err := json.Marshal(a)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != `"`+want+`"` {
			t.Errorf("Marshal(%s) = %s", in, out)
		}
	}
}

func TestAmountSQLRoundTrip(t *testing.T) {
	a := MustAmount("11.48")
	v, err := a.Value()
	if err != nil {
		t.Fatal(err)
	}
	var back Amount
	if err := back.Scan(v); err != nil {
		t.Fatal(err)
	}
	if back.String() != "11.48" || !back.Equal(a) {
		t.Fatalf("round trip = %s", back)
	}

	if err := back.Scan([]byte("2.50")); err != nil {
		t.Fatal(err)
	}
	if back.String() != "2.50" {
		t.Fatalf("scan bytes = %s", back)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	if _, err := ParseAmount("twelve"); err == nil {
		t.Fatal("expected error")
	}
}

func TestItemEditNormalize(t *testing.T) {
	m := "Bolt-Std"
	old := "Bolt-Old"

	e := ItemEdit{ItemID: "a", Match: &m}.Normalize()
	if e.Match != nil || e.Matches == nil || *e.Matches != m {
		t.Fatalf("match not renamed: %+v", e)
	}

	e = ItemEdit{ItemID: "a", Match: &m, Matches: &old}.Normalize()
	if *e.Matches != m {
		t.Fatalf("match must win over matches, got %q", *e.Matches)
	}

	e = ItemEdit{ItemID: "b", Matches: &old}.Normalize()
	if e.Matches == nil || *e.Matches != old {
		t.Fatalf("edit without match must be untouched: %+v", e)
	}

	e = ItemEdit{ItemID: "c"}.Normalize()
	if e.Matches != nil {
		t.Fatal("empty edit must stay empty")
	}
}

func TestItemEditDecodesLegacyField(t *testing.T) {
	var edits []ItemEdit
	body := `[{"item_id":"a","match":"X"},{"item_id":"b","quantity":3}]`
	if err := json.Unmarshal([]byte(body), &edits); err != nil {
		t.Fatal(err)
	}

	cols := edits[0].Patch().Columns()
	if cols["matches"] != "X" || len(cols) != 1 {
		t.Fatalf("cols = %v", cols)
	}
	cols = edits[1].Patch().Columns()
	if cols["quantity"] != 3 || len(cols) != 1 {
		t.Fatalf("cols = %v", cols)
	}
}

func TestItemEditNullMatchLeavesMatches(t *testing.T) {
	var edits []ItemEdit
	body := `[{"item_id":"a","match":null,"matches":"Y"},{"item_id":"b","match":null}]`
	if err := json.Unmarshal([]byte(body), &edits); err != nil {
		t.Fatal(err)
	}

	cols := edits[0].Patch().Columns()
	if cols["matches"] != "Y" {
		t.Fatalf("cols = %v, want matches kept", cols)
	}
	cols = edits[1].Patch().Columns()
	if _, ok := cols["matches"]; ok {
		t.Fatalf("null match must not touch matches: %v", cols)
	}
}

func TestReplacePatchClearsOptionals(t *testing.T) {
	qty := 5
	in := ItemInput{RequestItem: "Bolt", Quantity: &qty}
	cols := in.ReplacePatch().Columns()

	for _, name := range []string{"uom", "matches", "price_per_unit", "amount"} {
		v, ok := cols[name]
		if !ok || v != nil {
			t.Errorf("%s = %v (present=%v), want explicit nil", name, v, ok)
		}
	}
	if cols["request_item"] != "Bolt" || cols["quantity"] != 5 {
		t.Fatalf("cols = %v", cols)
	}
	if _, ok := cols["order_id"]; ok {
		t.Fatal("key columns must never be patched")
	}
}

func TestValidOrderStatus(t *testing.T) {
	if !ValidOrderStatus(OrderStatusFinalized) {
		t.Fatal("finalized should be valid")
	}
	if ValidOrderStatus("shipped") {
		t.Fatal("shipped should be rejected")
	}
}
