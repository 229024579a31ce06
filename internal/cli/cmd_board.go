package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// newBoardCmd creates the board command for kanban columns.
func newBoardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "board",
		Aliases: []string{"kanban"},
		Short:   "Manage a project's kanban board",
		Long: `Manage a project's kanban board.

Examples:
  trackr board show -p 1
  trackr board add-column -p 1 Review --wip 3
  trackr board update-column 4 --order 1
  trackr board delete-column 4       # Tasks in the column keep existing`,
	}

	cmd.AddCommand(newBoardShowCmd(a))
	cmd.AddCommand(newBoardAddColumnCmd(a))
	cmd.AddCommand(newBoardUpdateColumnCmd(a))
	cmd.AddCommand(newBoardDeleteColumnCmd(a))

	return cmd
}

func newBoardShowCmd(a *app) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a project's board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == 0 {
				return trackrerrors.ErrRequired("project_id")
			}
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			board, err := store.GetBoard(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			if board == nil {
				return trackrerrors.ErrProjectNotFound(projectID)
			}
			return a.output(cmd.OutOrStdout(), board, func(w io.Writer) error {
				return printBoard(w, board)
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project ID (required)")

	return cmd
}

func newBoardAddColumnCmd(a *app) *cobra.Command {
	var (
		projectID int64
		wip       int
	)

	cmd := &cobra.Command{
		Use:   "add-column <name>",
		Short: "Append a column to a project's board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == 0 {
				return trackrerrors.ErrRequired("project_id")
			}
			var limit *int
			if cmd.Flags().Changed("wip") {
				if wip < 0 {
					return trackrerrors.ErrInvalidInput("wip_limit", "must not be negative")
				}
				limit = &wip
			}

			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			col, err := store.AddColumn(cmd.Context(), projectID, args[0], limit)
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), col, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added column #%d %s\n", col.ID, col.Name)
				return err
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project ID (required)")
	cmd.Flags().IntVar(&wip, "wip", 0, "work-in-progress limit")

	return cmd
}

func newBoardUpdateColumnCmd(a *app) *cobra.Command {
	var (
		name  string
		order int
		wip   int
	)

	cmd := &cobra.Command{
		Use:   "update-column <id>",
		Short: "Rename, reorder or re-limit a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "column_id")
			if err != nil {
				return err
			}

			var u db.ColumnUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("order") {
				u.OrderIndex = &order
			}
			if cmd.Flags().Changed("wip") {
				u.WIPLimit = &wip
			}

			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			col, err := store.UpdateColumn(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), col, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated column #%d %s\n", col.ID, col.Name)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "column name")
	cmd.Flags().IntVar(&order, "order", 0, "display order index")
	cmd.Flags().IntVar(&wip, "wip", 0, "work-in-progress limit")

	return cmd
}

func newBoardDeleteColumnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-column <id>",
		Short: "Delete a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "column_id")
			if err != nil {
				return err
			}
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.DeleteColumn(cmd.Context(), id); err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), map[string]int64{"deleted": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted column #%d\n", id)
				return err
			})
		},
	}
}
