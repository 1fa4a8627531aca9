package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter/pkg/adapters/lifecycle"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/render"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

var (
	watchView   string
	watchWidth  int
	watchHeight int
)

const clearScreen = "\033[H\033[2J"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the recent sightings live",
	Long: `Watch subscribes to the recent sightings and redraws the list or the map
every time the collection changes. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchView != "list" && watchView != "map" && watchView != "events" {
			return fmt.Errorf("unknown view %q (want list, map or events)", watchView)
		}

		ctx := cmd.Context()
		trees, err := openTrees(ctx)
		if err != nil {
			return err
		}
		defer trees.Collection().Close()

		if watchView == "events" {
			return watchEvents(ctx, cmd.OutOrStdout(), trees.Collection())
		}

		model, err := viewstate.New(ctx, trees,
			viewstate.WithLogger(slog.Default()),
			viewstate.WithLimit(cfg.Store.Limit),
		)
		if err != nil {
			return err
		}
		defer model.Close()

		wake := make(chan struct{}, 1)
		signal := func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		}

		var draw func() string
		switch watchView {
		case "list":
			list := render.NewList(model.Trees(), model, render.OnListRedraw(signal))
			defer list.Detach()
			draw = func() string { return list.View(watchWidth, -1) }
		case "map":
			grid := render.NewGrid()
			location, gate := newDevice(nil, nil)
			mv := render.NewMap(model.Trees(), model, grid,
				render.OnMapRedraw(signal),
				render.WithLocationProvider(location),
				render.WithPermissions(gate),
				render.WithNotifier(newNotifier()),
				render.WithMapLogger(slog.Default()),
			)
			defer mv.Detach()
			if _, err := mv.RequestPermission(ctx); err != nil {
				slog.Debug("map without location", "error", err)
			}
			draw = func() string { return legend(grid) + grid.Render(watchWidth, watchHeight, "") }
		}

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-wake:
				redraw(out, draw())
			}
		}
	},
}

// watchEvents prints one line per snapshot without rendering.
func watchEvents(ctx context.Context, w io.Writer, coll core.Collection) error {
	watchable, ok := coll.(core.Watchable)
	if !ok {
		return core.ErrNotWatchable
	}
	src := lifecycle.NewSource(watchable, core.RecentQuery(cfg.Store.Limit))
	if err := src.Start(ctx); err != nil {
		return err
	}
	for e := range src.Events() {
		fmt.Fprintf(w, "%s %s\n", time.Now().Format(time.TimeOnly), e)
	}
	return nil
}

func redraw(w io.Writer, frame string) {
	fmt.Fprint(w, clearScreen)
	fmt.Fprintln(w, frame)
}

// legend lists the drawn markers under their glyph.
func legend(grid *render.Grid) string {
	_, markers := grid.Markers()
	var b strings.Builder
	for _, m := range markers {
		glyph := "♣"
		if m.Icon == render.IconFavorite {
			glyph = "♥"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", glyph, m.Title, m.Snippet)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchView, "view", "list", "View to render: list, map or events")
	watchCmd.Flags().IntVar(&watchWidth, "width", 72, "Render width in cells")
	watchCmd.Flags().IntVar(&watchHeight, "height", 20, "Map height in cells")
}
