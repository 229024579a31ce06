package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/task"
)

// newTaskCmd creates the task command with subcommands.
func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
		Long: `Manage the tasks of a project.

Examples:
  trackr task add -p 1 "Write docs" --priority low --due 2025-07-01
  trackr task list -p 1 --status todo
  trackr task update 4 --status done
  trackr task update 4 --due ""      # Clear the due date`,
	}

	cmd.AddCommand(newTaskListCmd(a))
	cmd.AddCommand(newTaskAddCmd(a))
	cmd.AddCommand(newTaskUpdateCmd(a))
	cmd.AddCommand(newTaskDeleteCmd(a))

	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var (
		projectID int64
		columnID  int64
		status    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := store.ListTasks(cmd.Context(), db.ListTasksOpts{
				ProjectID: projectID,
				ColumnID:  columnID,
				Status:    task.Status(status),
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if tasks == nil {
				tasks = []db.Task{}
			}
			return a.output(cmd.OutOrStdout(), tasks, func(w io.Writer) error {
				return printTasks(w, tasks)
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "filter by project ID")
	cmd.Flags().Int64Var(&columnID, "column", 0, "filter by kanban column ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (todo, in_progress, done)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tasks")

	return cmd
}

// taskFlags are the editable task fields shared by add and update.
type taskFlags struct {
	description string
	status      string
	priority    string
	due         string
	columnID    int64
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&f.status, "status", "", "status (todo, in_progress, done)")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority (high, medium, low)")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD); empty clears it")
	cmd.Flags().Int64Var(&f.columnID, "column", 0, "kanban column ID")
}

// apply copies the flags the user set onto t.
func (f *taskFlags) apply(cmd *cobra.Command, t *db.Task) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		desc := f.description
		t.Description = &desc
	}
	if flags.Changed("status") {
		t.Status = task.Status(f.status)
	}
	if flags.Changed("priority") {
		t.Priority = task.Priority(f.priority)
	}
	if flags.Changed("due") {
		if strings.TrimSpace(f.due) == "" {
			t.DueDate = nil
		} else {
			d, ok := task.ParseDueDate(f.due)
			if !ok {
				return trackrerrors.ErrInvalidInput("due_date", "expected a YYYY-MM-DD date")
			}
			t.DueDate = &d
		}
	}
	if flags.Changed("column") {
		id := f.columnID
		t.ColumnID = &id
	}
	return nil
}

func newTaskAddCmd(a *app) *cobra.Command {
	var (
		projectID int64
		tf        taskFlags
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == 0 {
				return trackrerrors.ErrRequired("project_id")
			}
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			t := &db.Task{ProjectID: projectID, Title: args[0]}
			if err := tf.apply(cmd, t); err != nil {
				return err
			}
			if _, err := store.CreateTask(cmd.Context(), t); err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), t, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s task #%d %s\n", render(w, successStyle, "Added"), t.ID, t.Title)
				return err
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project ID (required)")
	tf.register(cmd)

	return cmd
}

func newTaskUpdateCmd(a *app) *cobra.Command {
	var (
		title string
		tf    taskFlags
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task_id")
			if err != nil {
				return err
			}
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			t, err := store.GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			if t == nil {
				return trackrerrors.ErrTaskNotFound(id)
			}

			if cmd.Flags().Changed("title") {
				t.Title = title
			}
			if err := tf.apply(cmd, t); err != nil {
				return err
			}
			if err := store.UpdateTask(cmd.Context(), t); err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), t, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated task #%d\n", t.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "task title")
	tf.register(cmd)

	return cmd
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task_id")
			if err != nil {
				return err
			}
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), map[string]int64{"deleted": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted task #%d\n", id)
				return err
			})
		},
	}
}
