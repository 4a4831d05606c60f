package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/product"
	"github.com/xenking/oolio-pos/internal/engine"
	"github.com/xenking/oolio-pos/pkg/health"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (c *CLI) printSummary(cmd *cobra.Command) {
	t := c.term.Engine.Totals()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d item(s), total %s, due %s\n",
		t.Quantity, money(t.Total), money(t.GrandTotal))
}

func printOrder(w io.Writer, o *order.Order, t engine.Totals) {
	if len(o.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No items.")
	} else {
		tw := newTable(w)
		_, _ = fmt.Fprintln(tw, "#\tITEM\tSKU\tQTY\tPRICE\tORIGINAL\tDISC%\tLINE\tFLAGS")
		for i := range o.Items {
			l := &o.Items[i]
			flags := ""
			if l.TaxesWaived {
				flags = "no-tax"
			}
			if l.SalesPersonID != "" {
				flags += " sp:" + l.SalesPersonID
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%s\t%s\t%s\t%s\t%s\n",
				i+1, l.Name, l.SKU, l.Quantity, l.MaxQuantity,
				money(l.Price), money(l.OriginalPrice), l.DiscountPercent.String(),
				money(l.LineTotal()), strings.TrimSpace(flags))
		}
		_ = tw.Flush()
	}

	_, _ = fmt.Fprintln(w)
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "Quantity\t%d\n", t.Quantity)
	_, _ = fmt.Fprintf(tw, "Subtotal\t%s\n", money(t.Subtotal))
	_, _ = fmt.Fprintf(tw, "Discount\t%s (%s%%)\n", money(t.Discount), t.DiscountPercent.String())
	if o.OverallDiscount.IsPositive() {
		_, _ = fmt.Fprintf(tw, "Overall discount\t%s%%\n", o.OverallDiscount.String())
	}
	_, _ = fmt.Fprintf(tw, "Total\t%s\n", money(t.Total))
	for _, tax := range t.Taxes {
		_, _ = fmt.Fprintf(tw, "%s (%s%%)\t%s\n", tax.Type, tax.Rate.String(), money(tax.Amount))
	}
	_, _ = fmt.Fprintf(tw, "Grand total\t%s\n", money(t.GrandTotal))
	_, _ = fmt.Fprintf(tw, "Cash total\t%s\n", money(t.CashTotal))
	_ = tw.Flush()

	if cust := o.Customer; cust != nil {
		_, _ = fmt.Fprintf(w, "\nCustomer: %s", cust.Name)
		if cust.Phone != "" {
			_, _ = fmt.Fprintf(w, " %s", cust.Phone)
		}
		if cust.Email != "" {
			_, _ = fmt.Fprintf(w, " <%s>", cust.Email)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(o.Comments) > 0 {
		_, _ = fmt.Fprintln(w, "\nComments:")
		for i, cm := range o.Comments {
			target := "order"
			if cm.Item != nil {
				target = cm.Item.Name
			}
			_, _ = fmt.Fprintf(w, "  %d. [%s] %s", i+1, target, cm.Text)
			if cm.Reply != "" {
				_, _ = fmt.Fprintf(w, " / reply: %s", cm.Reply)
			} else if cm.RequiresReply {
				_, _ = fmt.Fprint(w, " (awaiting reply)")
			}
			_, _ = fmt.Fprintln(w)
		}
	}
	if len(o.Payments) > 0 {
		_, _ = fmt.Fprintf(w, "\nPayments: %d\n", len(o.Payments))
	}
}

func printProducts(w io.Writer, products []product.Product) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tSKU\tNAME\tPRICE\tMAX")
	for _, p := range products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ItemID, p.SKU, p.Name, money(p.Price), p.MaxQuantity)
	}
	_ = tw.Flush()
}

func printDrafts(w io.Writer, drafts []order.Draft) {
	if len(drafts) == 0 {
		_, _ = fmt.Fprintln(w, "No drafts.")
		return
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "#\tSAVED\tITEMS\tTOTAL\tCUSTOMER")
	for i, d := range drafts {
		customer := "-"
		if d.Order.Customer != nil {
			customer = d.Order.Customer.Name
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			i+1, d.CreatedAt.Format("2006-01-02 15:04"), d.Order.TotalQuantity(), money(d.Order.Total()), customer)
	}
	_ = tw.Flush()
}

func printChecks(w io.Writer, results []health.Result) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "CHECK\tSTATUS\tTOOK")
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "FAIL: " + r.Err.Error()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, status, r.Duration.Round(time.Millisecond))
	}
	_ = tw.Flush()
}
