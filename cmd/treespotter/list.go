package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter/pkg/core"
)

var (
	listJSON  bool
	listLimit int
)

var (
	refStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	spottedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	favStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
)

// treeJSON is the --json shape of a sighting.
type treeJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DateSpotted time.Time      `json:"dateSpotted"`
	Favorite    bool           `json:"favorite"`
	Location    *core.GeoPoint `json:"location,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent sightings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		trees, err := openTrees(ctx)
		if err != nil {
			return err
		}
		defer trees.Collection().Close()

		limit := listLimit
		if limit <= 0 {
			limit = cfg.Store.Limit
		}
		recent, err := trees.Recent(ctx, limit)
		if err != nil {
			return fmt.Errorf("list trees: %w", err)
		}

		if listJSON {
			return writeJSON(cmd.OutOrStdout(), recent)
		}
		printTrees(cmd.OutOrStdout(), recent)
		return nil
	},
}

func writeJSON(w io.Writer, trees []*core.Tree) error {
	out := make([]treeJSON, 0, len(trees))
	for _, t := range trees {
		out = append(out, treeJSON{
			ID:          string(t.Ref),
			Name:        t.Name,
			DateSpotted: t.DateSpotted,
			Favorite:    t.Favorite,
			Location:    t.Location,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printTrees(w io.Writer, trees []*core.Tree) {
	if len(trees) == 0 {
		fmt.Fprintln(w, spottedStyle.Render("No trees spotted yet."))
		return
	}
	for _, t := range trees {
		fav := " "
		if t.Favorite {
			fav = favStyle.Render("♥")
		}
		fmt.Fprintf(w, "%s %s %s  %s\n", refStyle.Render(t.Ref.Short()), fav, nameStyle.Render(t.Label()), spottedStyle.Render(t.Spotted()))
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Number of sightings (default from config)")
}
