package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter/pkg/render"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

var (
	addName string
	addLat  float64
	addLon  float64
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a tree at the current location",
	Long: `Add records a sighting dated now at the current location. The location
comes from --lat/--lon or from the configuration. Without a name a random
tree name is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var lat, lon *float64
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				return errors.New("--lat and --lon must be given together")
			}
			lat, lon = &addLat, &addLon
		}
		location, gate := newDevice(lat, lon)

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

		// Same flow as adding from the map screen, drawn nowhere.
		mv := render.NewMap(model.Trees(), model, render.NewGeoJSON(),
			render.WithLocationProvider(location),
			render.WithPermissions(gate),
			render.WithNotifier(newNotifier()),
			render.WithMapLogger(slog.Default()),
		)
		defer mv.Detach()

		if _, err := mv.RequestPermission(ctx); err != nil {
			slog.Debug("location permission", "error", err)
		}
		tree, err := mv.AddTreeHereAndWait(ctx, addName)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), tree.Ref)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addName, "name", "", "Tree name (random if empty)")
	addCmd.Flags().Float64Var(&addLat, "lat", 0, "Latitude of the sighting")
	addCmd.Flags().Float64Var(&addLon, "lon", 0, "Longitude of the sighting")
}
