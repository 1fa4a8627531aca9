package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a recent sighting",
	Long:  `Delete permanently removes a sighting after confirmation. The id may be any unique prefix.`,
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

		if !deleteYes {
			ok, err := promptConfirm(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %s?", tree.Label()))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
		}

		if err := trees.Delete(ctx, tree.Ref); err != nil {
			return fmt.Errorf("delete %s: %w", tree.Label(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", tree.Label())
		return nil
	},
}

// promptConfirm asks a y/N question on the terminal.
func promptConfirm(ctx context.Context, in io.Reader, out io.Writer, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
