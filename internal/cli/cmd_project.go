package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/task"
	"github.com/randalmurphal/trackr/internal/wizard"
)

// newProjectCmd creates the project command with subcommands.
func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
		Long: `Manage projects. Each project owns its tasks and a kanban board
created with the default columns "To do", "In progress" and "Done".

Examples:
  trackr project create "Website" --priority high
  trackr project create -i                 # Interactive wizard
  trackr project list
  trackr project update 1 --status in_progress --roadmap docs/roadmap.md`,
	}

	cmd.AddCommand(newProjectCreateCmd(a))
	cmd.AddCommand(newProjectListCmd(a))
	cmd.AddCommand(newProjectShowCmd(a))
	cmd.AddCommand(newProjectUpdateCmd(a))
	cmd.AddCommand(newProjectDeleteCmd(a))

	return cmd
}

func newProjectCreateCmd(a *app) *cobra.Command {
	var (
		description string
		priority    string
		roadmapPath string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var p *db.Project
			if interactive {
				var ok bool
				var err error
				p, ok, err = a.runProjectWizard(cmd)
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			} else {
				if len(args) == 0 {
					return trackrerrors.ErrRequired("title")
				}
				p = &db.Project{
					Title:       args[0],
					Description: description,
					Priority:    task.Priority(priority),
					RoadmapPath: roadmapPath,
				}
			}

			store, err := a.db(ctx)
			if err != nil {
				return err
			}
			if _, err := store.CreateProject(ctx, p); err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s project #%d %s\n", render(w, successStyle, "Created"), p.ID, p.Title)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (high, medium, low)")
	cmd.Flags().StringVar(&roadmapPath, "roadmap", "", "roadmap file path")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "create the project with a guided wizard")

	return cmd
}

// runProjectWizard offers detected roadmap files as choices. Detection
// failures only mean there is nothing to offer.
func (a *app) runProjectWizard(cmd *cobra.Command) (*db.Project, bool, error) {
	svc, err := a.importer(cmd.Context())
	if err != nil {
		return nil, false, err
	}
	candidates, err := svc.Detect("")
	if err != nil {
		a.logger.Debug("roadmap detection skipped", "error", err)
		candidates = nil
	}

	w := wizard.NewProjectWizard(candidates)
	if err := w.Run(tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout())); err != nil {
		if errors.Is(err, wizard.ErrCancelled) {
			return nil, false, nil
		}
		return nil, false, err
	}
	p, ok := wizard.ProjectFromState(w.State())
	return p, ok, nil
}

func newProjectListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := store.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if projects == nil {
				projects = []db.Project{}
			}
			return a.output(cmd.OutOrStdout(), projects, func(w io.Writer) error {
				return printProjects(w, projects)
			})
		},
	}
}

func newProjectShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(cmd, args[0])
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), p, func(w io.Writer) error {
				return printProject(w, p)
			})
		},
	}
}

func newProjectUpdateCmd(a *app) *cobra.Command {
	var (
		title       string
		description string
		status      string
		priority    string
		progress    int
		roadmapPath string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update project fields",
		Long: `Update the given fields of a project; unset flags are left unchanged.

Examples:
  trackr project update 1 --status done --progress 100
  trackr project update 1 --roadmap ""     # Clear the roadmap path`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(cmd, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = title
			}
			if flags.Changed("description") {
				p.Description = description
			}
			if flags.Changed("status") {
				p.Status = task.ProjectStatus(status)
			}
			if flags.Changed("priority") {
				p.Priority = task.Priority(priority)
			}
			if flags.Changed("progress") {
				p.ProgressPercent = progress
			}
			if flags.Changed("roadmap") {
				p.RoadmapPath = roadmapPath
			}

			if err := a.store.UpdateProject(cmd.Context(), p); err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated project #%d\n", p.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "project title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringVar(&status, "status", "", "status (planned, in_progress, done)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (high, medium, low)")
	cmd.Flags().IntVar(&progress, "progress", 0, "progress percent (0-100)")
	cmd.Flags().StringVar(&roadmapPath, "roadmap", "", "roadmap file path")

	return cmd
}

func newProjectDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its tasks and board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project_id")
			if err != nil {
				return err
			}
			store, err := a.db(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), map[string]int64{"deleted": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted project #%d\n", id)
				return err
			})
		},
	}
}

// loadProject resolves a project id argument, returning ProjectNotFound
// when absent.
func (a *app) loadProject(cmd *cobra.Command, arg string) (*db.Project, error) {
	id, err := parseID(arg, "project_id")
	if err != nil {
		return nil, err
	}
	store, err := a.db(cmd.Context())
	if err != nil {
		return nil, err
	}
	p, err := store.GetProject(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, trackrerrors.ErrProjectNotFound(id)
	}
	return p, nil
}

func parseID(s, field string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, trackrerrors.ErrInvalidInput(field, "expected a positive integer")
	}
	return id, nil
}
