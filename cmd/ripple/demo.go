package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple"
	"github.com/ripple-dev/ripple/pkg/persist"
)

func demoCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a guided tour of the reactive runtime",
		Long: `Run a guided tour of the reactive runtime.

The demo builds a small graph of signals, memos, and effects, then
walks through writes, batches, untracked reads, error routing, and
snapshot persistence, printing what re-runs at each step.

Examples:
  ripple demo
  ripple demo --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Log every signal write and batch commit")

	return cmd
}

func runDemo(debug bool) error {
	if debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		ripple.SetDebug(true)
	}

	printBanner()
	fmt.Println("  demo")
	fmt.Println()

	if err := demoGraph(); err != nil {
		return err
	}
	demoErrorRouting()
	if err := demoPersistence(); err != nil {
		return err
	}

	fmt.Println()
	success("Demo complete")
	return nil
}

// demoGraph walks through the core primitives: a signal-memo-effect
// chain, single writes, batches, and untracked reads.
func demoGraph() error {
	return ripple.CreateRoot(func(dispose func()) error {
		defer dispose()

		info("A memo derives from signals; an effect reacts to the memo.")
		price := ripple.NewSignal(10.0, ripple.WithName[float64]("price"))
		qty := ripple.NewIntSignal(2, ripple.WithName[int]("qty"))
		total := ripple.NewMemo(func() float64 {
			return price.Get() * float64(qty.Get())
		}, ripple.WithName[float64]("total"))

		ripple.CreateNamedEffect("receipt", func() {
			info("receipt: %d x %.2f = %.2f", qty.Peek(), price.Peek(), total.Get())
		})

		fmt.Println()
		info("One write re-runs only what depends on it.")
		price.Set(12.5)

		fmt.Println()
		info("Batched writes settle in a single wave.")
		ripple.Batch(func() {
			price.Set(9.99)
			qty.Add(3)
		})

		fmt.Println()
		info("Untrack reads without subscribing.")
		audit := ripple.Untrack(func() float64 { return total.Get() })
		success("audit copy: %.2f", audit)

		fmt.Println()
		info("Context flows down the ownership tree.")
		currency := ripple.CreateContext("USD")
		currency.Set("EUR")
		ripple.CreateNamedEffect("locale", func() {
			success("currency: %s", currency.Get())
		})
		return nil
	})
}

// demoErrorRouting shows a panicking effect being absorbed by the
// nearest OnError handler instead of crashing the process.
func demoErrorRouting() {
	fmt.Println()
	info("Panics route to the nearest OnError handler.")

	ripple.CreateRoot(func(dispose func()) any {
		defer dispose()

		ripple.OnError(func(err error) {
			warn("recovered: %v", err)
		})

		fail := ripple.NewSignal(false, ripple.WithName[bool]("fail"))
		ripple.CreateNamedEffect("fragile", func() {
			if fail.Get() {
				panic("simulated failure")
			}
		})
		fail.Set(true)
		return nil
	})

	success("The graph survived the panic")
}

// demoPersistence snapshots a persistent signal and restores it after
// an overwrite.
func demoPersistence() error {
	fmt.Println()
	info("Persistent signals snapshot and restore through a store.")

	visits := ripple.NewSignal(0, ripple.Persistent[int]("visits"))
	reg := persist.NewRegistry("demo")
	if err := reg.Track(visits); err != nil {
		return err
	}

	visits.Set(41)

	ctx := context.Background()
	mem := persist.NewMemoryStore()
	if err := reg.Save(ctx, mem); err != nil {
		return err
	}
	visits.Set(0)

	if err := reg.Load(ctx, mem); err != nil {
		return err
	}
	success("restored visits = %d", visits.Peek())
	return nil
}
