package pos

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pharmadesk/internal/billing"
)

func TestRenderBillShowsLinesAndTotals(t *testing.T) {
	cart := billing.NewCart(nil)
	if err := cart.AddItem(billing.Product{ID: 1, Name: "Paracetamol", Price: money("10.00"), Quantity: 5}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.SetQuantity(1, 2); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cart.AddItem(billing.Product{ID: 2, Name: "Ibuprofen", Price: money("20.00"), Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	var buf bytes.Buffer
	RenderBill(&buf, cart.Snapshot())
	text := buf.String()
	for _, want := range []string{"Paracetamol", "2/5", "₹20.00", "Subtotal: ₹40.00", "GST:      ₹2.00", "Total:    ₹42.00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered bill missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Confirm sale") {
		t.Fatalf("idle bill should not prompt")
	}
}

func TestRenderBillEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderBill(&buf, billing.NewCart(nil).Snapshot())
	if !strings.Contains(buf.String(), "Bill is empty.") || !strings.Contains(buf.String(), "Total:    ₹0.00") {
		t.Fatalf("empty bill rendering mismatch:\n%s", buf.String())
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, billing.SearchResult{Query: "zz", Products: []billing.Product{}})
	if !strings.Contains(buf.String(), `No results for "zz".`) {
		t.Fatalf("empty results message missing: %s", buf.String())
	}
	buf.Reset()
	RenderResults(&buf, billing.SearchResult{Query: "zz", Err: errors.New("x")})
	if !strings.Contains(buf.String(), "Search failed.") {
		t.Fatalf("failure message missing: %s", buf.String())
	}
}
