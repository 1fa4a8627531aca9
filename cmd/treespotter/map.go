package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter/pkg/render"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

var (
	mapOut     string
	mapTimeout time.Duration
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Export the recent sightings as GeoJSON markers",
	Long: `Map renders the recent sightings the way the live map does (one marker per
located tree, favorites with their own icon) and writes the markers as a
GeoJSON FeatureCollection.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), mapTimeout)
		defer cancel()

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

		drawn := make(chan struct{}, 1)
		surface := render.NewGeoJSON()
		mv := render.NewMap(model.Trees(), model, surface, render.OnMapRedraw(func() {
			select {
			case drawn <- struct{}{}:
			default:
			}
		}))
		defer mv.Detach()

		select {
		case <-drawn:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("no snapshot within %s", mapTimeout)
			}
			return ctx.Err()
		}

		w := cmd.OutOrStdout()
		if mapOut != "" && mapOut != "-" {
			f, err := os.Create(mapOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if _, err := surface.WriteTo(w); err != nil {
			return fmt.Errorf("write geojson: %w", err)
		}
		if mapOut != "" && mapOut != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d markers to %s\n", surface.Len(), mapOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringVarP(&mapOut, "out", "o", "-", "Output file (- for stdout)")
	mapCmd.Flags().DurationVar(&mapTimeout, "timeout", 10*time.Second, "How long to wait for the first snapshot")
}
