package pos

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pharmadesk/internal/billing"
	"github.com/pharmadesk/internal/models"
)

// CurrencySymbol 金额前缀符号
const CurrencySymbol = "₹"

func formatMoney(m models.Money) string {
	return CurrencySymbol + m.String()
}

// RenderBill 输出账单表格与合计
func RenderBill(w io.Writer, snap billing.Snapshot) {
	if len(snap.Lines) == 0 {
		fmt.Fprintln(w, "Bill is empty.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tITEM\tPRICE\tQTY\tTOTAL\t")
		for _, line := range snap.Lines {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%s\t\n",
				line.ID, line.Name, formatMoney(line.Price), line.Quantity, line.MaxStock, formatMoney(line.Total()))
		}
		_ = tw.Flush()
	}
	fmt.Fprintf(w, "Subtotal: %s\n", formatMoney(snap.Totals.Subtotal))
	fmt.Fprintf(w, "GST:      %s\n", formatMoney(snap.Totals.Tax))
	fmt.Fprintf(w, "Total:    %s\n", formatMoney(snap.Totals.GrandTotal))
	if snap.State == billing.StateAwaitingConfirmation {
		fmt.Fprintf(w, "Confirm sale of %s? (yes/no)\n", formatMoney(snap.Totals.GrandTotal))
	}
}

// RenderResults 输出带序号的搜索结果
func RenderResults(w io.Writer, result billing.SearchResult) {
	switch {
	case result.Err != nil:
		fmt.Fprintln(w, "Search failed.")
		return
	case len(result.Products) == 0:
		fmt.Fprintf(w, "No results for %q.\n", result.Query)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for idx, product := range result.Products {
		fmt.Fprintf(tw, "[%d]\t%s\t%s\t(Stock: %d)\t\n", idx+1, product.Name, formatMoney(product.Price), product.Quantity)
	}
	_ = tw.Flush()
}
