package cli

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/domain/pricing"
	"github.com/xenking/oolio-pos/pkg/health"
)

func parseDecimal(name, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %s", name)
	}
	return v, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrap(err, "parse index")
	}
	// Indices are 1-based on the command line.
	return n - 1, nil
}

func (c *CLI) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printOrder(cmd.OutOrStdout(), c.term.Engine.Snapshot(), c.term.Engine.Totals())
			return nil
		},
	}
}

func (c *CLI) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.term.Catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
}

func (c *CLI) addCmd() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <item-id>",
		Short: "Add a catalog product to the sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.term.Catalog.GetByID(ctx, args[0])
			if err != nil {
				return errors.Wrapf(err, "find %q", args[0])
			}
			for range max(qty, 1) {
				if err := c.term.Engine.AddItem(ctx, *p); err != nil {
					return err
				}
			}
			c.printSummary(cmd)
			return nil
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 1, "number of units to add")
	return cmd
}

func (c *CLI) incCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inc <line>",
		Short: "Add one unit to a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.term.Engine.IncrementItem(cmd.Context(), c.lineKey(args[0])); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
}

func (c *CLI) decCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dec <line>",
		Short: "Remove one unit from a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.term.Engine.DecrementItem(cmd.Context(), c.lineKey(args[0])); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
}

func (c *CLI) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <line>",
		Aliases: []string{"delete"},
		Short:   "Delete a line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.term.Engine.DeleteItem(cmd.Context(), c.lineKey(args[0])); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
}

func (c *CLI) discountCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "discount <line> [percent]",
		Short: "Set or reset a line discount",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k := c.lineKey(args[0])
			if reset {
				if err := c.term.Engine.ResetDiscount(ctx, k); err != nil {
					return err
				}
				c.printSummary(cmd)
				return nil
			}
			if len(args) != 2 {
				return errors.New("percent is required unless --reset is set")
			}
			percent, err := parseDecimal("percent", args[1])
			if err != nil {
				return err
			}
			if err := c.term.Engine.UpdateDiscount(ctx, k, percent); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the original price")
	return cmd
}

func (c *CLI) overallCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "overall [percent]",
		Short: "Apply or clear the order-wide discount",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if remove {
				if err := c.term.Engine.ClearOverallDiscount(ctx); err != nil {
					return err
				}
				c.printSummary(cmd)
				return nil
			}
			if len(args) != 1 {
				return errors.New("percent is required unless --clear is set")
			}
			percent, err := parseDecimal("percent", args[0])
			if err != nil {
				return err
			}
			if err := c.term.Engine.ApplyOverallDiscount(ctx, percent); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "clear", false, "remove the order-wide discount")
	return cmd
}

func (c *CLI) priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <line> <price>",
		Short: "Override the effective price of a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseDecimal("price", args[1])
			if err != nil {
				return err
			}
			if err := c.term.Engine.UpdatePrice(cmd.Context(), c.lineKey(args[0]), price); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
}

func (c *CLI) originalPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "original-price <line> <price>",
		Short: "Change the original price of a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseDecimal("price", args[1])
			if err != nil {
				return err
			}
			if err := c.term.Engine.UpdateOriginalPrice(cmd.Context(), c.lineKey(args[0]), price); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
}

func (c *CLI) waiveTaxCmd() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "waive-tax <line>",
		Short: "Exempt a line from taxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.term.Engine.SetTaxesWaived(cmd.Context(), c.lineKey(args[0]), !off); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "tax the line again")
	return cmd
}

func (c *CLI) taxRateCmd() *cobra.Command {
	var (
		line  string
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "tax-rate <GST|PST> [rate]",
		Short: "Change the default tax rate, or the rate of one line",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := pricing.TaxType(strings.ToUpper(args[0]))
			if reset {
				if line == "" {
					return errors.New("--reset requires --line")
				}
				if err := c.term.Engine.ResetItemTaxRate(ctx, c.lineKey(line), t); err != nil {
					return err
				}
				c.printSummary(cmd)
				return nil
			}
			if len(args) != 2 {
				return errors.New("rate is required unless --reset is set")
			}
			rate, err := parseDecimal("rate", args[1])
			if err != nil {
				return err
			}
			if line != "" {
				err = c.term.Engine.UpdateItemTaxRate(ctx, c.lineKey(line), t, rate)
			} else {
				err = c.term.Engine.UpdateTaxRate(ctx, t, rate)
			}
			if err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
	cmd.Flags().StringVar(&line, "line", "", "apply to a single line")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the line to the default rate")
	return cmd
}

func (c *CLI) salesPersonCmd() *cobra.Command {
	var line string
	cmd := &cobra.Command{
		Use:   "salesperson <id>",
		Short: "Assign a salesperson to every line, or to one line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if line != "" {
				err = c.term.Engine.SetSalesPerson(ctx, c.lineKey(line), args[0])
			} else {
				err = c.term.Engine.ApplySalesPersonToAll(ctx, args[0])
			}
			return err
		},
	}
	cmd.Flags().StringVar(&line, "line", "", "assign to a single line")
	return cmd
}

func (c *CLI) customerCmd() *cobra.Command {
	var cust order.Customer
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Attach or detach the customer",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Attach a customer to the sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.term.Engine.SetCustomer(cmd.Context(), cust)
		},
	}
	set.Flags().StringVar(&cust.ID, "id", "", "customer ID")
	set.Flags().StringVar(&cust.Name, "name", "", "customer name")
	set.Flags().StringVar(&cust.Phone, "phone", "", "phone number")
	set.Flags().StringVar(&cust.Email, "email", "", "email address")
	set.Flags().StringVar(&cust.Note, "note", "", "free-form note")

	detach := &cobra.Command{
		Use:   "clear",
		Short: "Detach the customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.term.Engine.ClearCustomer(cmd.Context())
		},
	}

	cmd.AddCommand(set, detach)
	return cmd
}

func (c *CLI) commentCmd() *cobra.Command {
	var (
		line     string
		discount string
		req      order.CommentRequest
	)
	cmd := &cobra.Command{
		Use:   "comment <text>",
		Short: "Record a manager comment on a line or on the whole order",
		Long: "Record a manager comment. With --approve and --manager the requested\n" +
			"discount is applied and an approval recorded; otherwise the pending\n" +
			"discount on the target is reset.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = args[0]
			if line != "" {
				k := c.lineKey(line)
				req.Item = &k
			}
			if discount != "" {
				v, err := parseDecimal("discount", discount)
				if err != nil {
					return err
				}
				req.Discount = v
			}
			if err := c.term.Engine.SubmitComment(cmd.Context(), req); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
	cmd.Flags().StringVar(&line, "line", "", "comment on a single line")
	cmd.Flags().StringVar(&discount, "discount", "", "requested discount percent")
	cmd.Flags().StringVar(&req.AuthorID, "author", "", "author ID")
	cmd.Flags().StringVar(&req.ManagerID, "manager", "", "approving manager ID")
	cmd.Flags().BoolVar(&req.Approved, "approve", false, "approve the requested discount")
	cmd.Flags().BoolVar(&req.RequireReply, "require-reply", false, "flag the comment as awaiting a reply")
	return cmd
}

func (c *CLI) replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <comment> <text>",
		Short: "Reply to a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.term.Engine.ReplyToComment(cmd.Context(), i, args[1])
		},
	}
}

func (c *CLI) payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <json>",
		Short: "Record a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.term.Engine.AddPayment(cmd.Context(), []byte(args[0]))
		},
	}
}

func (c *CLI) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the active sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.term.Engine.Clear(cmd.Context())
		},
	}
}

func (c *CLI) draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Park and resume sales",
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Park the active sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.term.Engine.SaveAsDraft(cmd.Context())
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List parked sales, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printDrafts(cmd.OutOrStdout(), c.term.Engine.ListDrafts())
			return nil
		},
	}
	load := &cobra.Command{
		Use:   "load <n>",
		Short: "Merge a parked sale into the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := c.term.Engine.LoadDraft(cmd.Context(), i); err != nil {
				return err
			}
			c.printSummary(cmd)
			return nil
		},
	}
	remove := &cobra.Command{
		Use:   "rm <n>",
		Short: "Discard a parked sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.term.Engine.RemoveDraft(cmd.Context(), i)
		},
	}

	cmd.AddCommand(save, list, load, remove)
	return cmd
}

func (c *CLI) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the state store and catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results := c.term.Checks.Run(cmd.Context())
			printChecks(cmd.OutOrStdout(), results)
			if failed := len(health.Failures(results)); failed > 0 {
				return errors.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
