package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter/pkg/core"
)

var favoriteOff bool

var favoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Mark a recent sighting as favorite",
	Long:  `Favorite sets the favorite flag of a recent sighting. The id may be any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		trees, err := openTrees(ctx)
		if err != nil {
			return err
		}
		defer trees.Collection().Close()

		tree, err := trees.Find(ctx, args[0], cfg.Store.Limit)
		if err != nil {
			return err
		}
		if err := trees.UpdateField(ctx, tree.Ref, core.FieldFavorite, !favoriteOff); err != nil {
			return fmt.Errorf("update %s: %w", tree.Label(), err)
		}

		state := "favorite"
		if favoriteOff {
			state = "not favorite"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", tree.Label(), state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
	favoriteCmd.Flags().BoolVar(&favoriteOff, "off", false, "Clear the favorite flag instead")
}
