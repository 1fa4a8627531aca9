package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

var statusWait time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the store and the view model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		trees, err := openTrees(ctx)
		if err != nil {
			return err
		}
		defer trees.Collection().Close()

		model, err := viewstate.New(ctx, trees,
			viewstate.WithLogger(slog.Default()),
			viewstate.WithLimit(cfg.Store.Limit),
		)
		if err != nil {
			return err
		}
		defer model.Close()

		first := make(chan struct{})
		var once bool
		unsubscribe := model.Trees().Observe(func([]*core.Tree) {
			if !once {
				once = true
				close(first)
			}
		})
		defer unsubscribe()

		waitCtx, cancel := context.WithTimeout(ctx, statusWait)
		defer cancel()
		select {
		case <-first:
		case <-waitCtx.Done():
		}

		out := cmd.OutOrStdout()
		if err := printComponent(out, trees.Collection()); err != nil {
			return err
		}
		return printComponent(out, model)
	},
}

// printComponent writes an introspectable component's state as YAML.
func printComponent(w io.Writer, v any) error {
	intro, ok := v.(introspection.Introspectable)
	if !ok {
		return nil
	}
	name := fmt.Sprintf("%T", v)
	if comp, ok := v.(introspection.Component); ok {
		name = comp.ComponentType()
	}
	data, err := yaml.Marshal(map[string]any{name: intro.State()})
	if err != nil {
		return fmt.Errorf("encode %s state: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().DurationVar(&statusWait, "wait", 2*time.Second, "How long to wait for the first snapshot")
}
