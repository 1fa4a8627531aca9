package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter/internal/notify"
	"github.com/aretw0/treespotter/internal/tui"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive map and list",
	Long: `UI opens a terminal interface with a map tab and a list tab over the same
live sightings. Tab switches views, space toggles a favorite in the list,
a adds a tree at the current location, d deletes the selected marker.`,
	Args: cobra.NoArgs,
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

		location, gate := newDevice(nil, nil)
		uiCfg := tui.Config{
			Location:    location,
			Permissions: gate,
			Logger:      slog.Default(),
		}
		if cfg.Notify.Desktop {
			uiCfg.Notifier = notify.NewDesktop(slog.Default())
		}
		return tui.Run(ctx, model, uiCfg)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
