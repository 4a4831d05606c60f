// Package cli is the terminal front end of the order engine. Every command
// resumes the persisted sale, applies one operation and writes it through.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appkg "github.com/xenking/oolio-pos/internal/app"
	"github.com/xenking/oolio-pos/internal/domain/order"
	"github.com/xenking/oolio-pos/internal/notify"
)

// OpenFunc builds a terminal for the given config file path.
type OpenFunc func(ctx context.Context, configPath string, sink notify.Sink) (*appkg.Terminal, error)

// Options configures the CLI. Zero values are replaced with defaults.
type Options struct {
	Logger    *zap.Logger
	Telemetry *app.Telemetry
	Open      OpenFunc

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Open == nil {
		lg, m := o.Logger, o.Telemetry
		o.Open = func(ctx context.Context, configPath string, sink notify.Sink) (*appkg.Terminal, error) {
			cfg, err := appkg.LoadConfig(configPath)
			if err != nil {
				return nil, err
			}
			return appkg.Open(ctx, lg, m, cfg, sink)
		}
	}
}

// CLI runs pos commands against a lazily opened terminal.
type CLI struct {
	opts       Options
	configPath string
	term       *appkg.Terminal
}

// New returns a CLI.
func New(opts Options) *CLI {
	opts.setDefaults()
	return &CLI{opts: opts}
}

// Run executes a single command line and releases the terminal.
func (c *CLI) Run(ctx context.Context, args []string) error {
	defer c.close()
	cmd := c.command()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (c *CLI) close() {
	if c.term != nil {
		c.term.Close()
		c.term = nil
	}
}

func (c *CLI) command() *cobra.Command {
	root := &cobra.Command{
		Use:               "pos",
		Short:             "Point-of-sale order entry",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.open,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(c.opts.In)
	root.SetOut(c.opts.Out)
	root.SetErr(c.opts.Err)
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "config file (default pos.yaml or /etc/pos/config.yaml)")

	root.AddCommand(
		c.showCmd(),
		c.productsCmd(),
		c.addCmd(),
		c.incCmd(),
		c.decCmd(),
		c.removeCmd(),
		c.discountCmd(),
		c.overallCmd(),
		c.priceCmd(),
		c.originalPriceCmd(),
		c.waiveTaxCmd(),
		c.taxRateCmd(),
		c.salesPersonCmd(),
		c.customerCmd(),
		c.commentCmd(),
		c.replyCmd(),
		c.payCmd(),
		c.clearCmd(),
		c.draftCmd(),
		c.doctorCmd(),
		c.shellCmd(),
	)
	for _, sub := range root.Commands() {
		if !strings.Contains(sub.Use, "<line>") && sub.Flags().Lookup("line") == nil {
			continue
		}
		long := sub.Long
		if long == "" {
			long = sub.Short + "."
		}
		sub.Long = long + "\n\n" + lineRefHelp
	}
	return root
}

func (c *CLI) open(cmd *cobra.Command, _ []string) error {
	if c.term != nil {
		return nil
	}
	term, err := c.opts.Open(cmd.Context(), c.configPath, notify.NewWriter(cmd.ErrOrStderr()))
	if err != nil {
		return errors.Wrap(err, "open terminal")
	}
	c.term = term
	return nil
}

func (c *CLI) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive mode; the sale stays open between commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			sc := bufio.NewScanner(cmd.InOrStdin())
			for {
				_, _ = fmt.Fprint(out, "pos> ")
				if !sc.Scan() {
					_, _ = fmt.Fprintln(out)
					return sc.Err()
				}
				line := strings.TrimSpace(sc.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				args, err := shlex.Split(line)
				if err != nil {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
					continue
				}
				if len(args) > 0 && args[0] == "shell" {
					continue
				}
				sub := c.command()
				sub.SetArgs(args)
				if err := sub.ExecuteContext(cmd.Context()); err != nil {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				}
			}
		},
	}
}

const lineRefHelp = "A line is referenced by item ID or by its 1-based position in the sale.\n" +
	"An item ID wins over a position; use @N to always mean position N."

// lineKey resolves a line reference. "@n" is the n-th line; anything else is
// matched against item IDs first and then read as a line number. An
// unresolved reference yields a key that matches no line.
func (c *CLI) lineKey(ref string) order.Key {
	items := c.term.Engine.Snapshot().Items
	pos, explicit := strings.CutPrefix(ref, "@")
	if !explicit {
		for _, l := range items {
			if l.ItemID == ref {
				return l.Key()
			}
		}
	}
	if n, err := strconv.Atoi(pos); err == nil && n >= 1 && n <= len(items) {
		return items[n-1].Key()
	}
	return order.Key{ItemID: ref}
}
