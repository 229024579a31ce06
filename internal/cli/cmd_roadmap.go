package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/importer"
	"github.com/randalmurphal/trackr/internal/roadmap"
)

// newRoadmapCmd creates the roadmap command with subcommands.
func newRoadmapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Turn markdown roadmaps into tasks",
		Long: `Turn markdown roadmap checklists into project tasks.

Items whose title already exists in the project are skipped, so syncing
the same roadmap twice creates nothing new.

Subcommands:
  import      Import checklist markdown from a file or stdin
  sync        Sync the project's roadmap file
  smart-sync  Sync, normalizing free-form text through the completion provider
  detect      Find candidate roadmap files

Examples:
  trackr roadmap import plan.md -p 1
  cat plan.md | trackr roadmap import - -p 1
  trackr roadmap detect --set -p 1
  trackr roadmap smart-sync -p 1`,
	}

	cmd.AddCommand(newRoadmapImportCmd(a))
	cmd.AddCommand(newRoadmapSyncCmd(a, "sync", "Sync the project's roadmap file", (*importer.Service).SyncFile))
	cmd.AddCommand(newRoadmapSyncCmd(a, "smart-sync", "Sync the roadmap file, normalizing prose", (*importer.Service).SmartSync))
	cmd.AddCommand(newRoadmapDetectCmd(a))

	return cmd
}

func newRoadmapImportCmd(a *app) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import checklist markdown into a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			svc, err := a.importer(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.ImportMarkdown(cmd.Context(), projectID, markdown)
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return printSyncResult(w, res)
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project ID (required)")

	return cmd
}

type syncFunc func(*importer.Service, context.Context, int64) (*importer.SyncResult, error)

func newRoadmapSyncCmd(a *app, use, short string, sync syncFunc) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The file is the project's roadmap path, else roadmap.path from config,
else roadmap.md in the working directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.importer(cmd.Context())
			if err != nil {
				return err
			}
			res, err := sync(svc, cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), res, func(w io.Writer) error {
				return printSyncResult(w, res)
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project ID (required)")

	return cmd
}

type detectOutput struct {
	Root       string              `json:"root"`
	Best       string              `json:"best,omitempty"`
	Candidates []roadmap.Candidate `json:"candidates"`
}

func newRoadmapDetectCmd(a *app) *cobra.Command {
	var (
		projectID int64
		set       bool
	)

	cmd := &cobra.Command{
		Use:   "detect [root]",
		Short: "Find candidate roadmap files",
		Long: `Rank roadmap files under root (default: roadmap.search_root, else the
working directory). Files containing a checklist rank first.

With --set, the best candidate becomes the project's roadmap path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}
			if set && projectID == 0 {
				return trackrerrors.ErrRequired("project_id")
			}

			svc, err := a.importer(cmd.Context())
			if err != nil {
				return err
			}
			candidates, err := svc.Detect(root)
			if err != nil {
				return err
			}
			out := detectOutput{Root: svc.DetectRoot(root), Candidates: candidates}
			if out.Candidates == nil {
				out.Candidates = []roadmap.Candidate{}
			}
			if len(candidates) > 0 {
				out.Best = candidates[0].Path
			}
			if set {
				best, err := svc.AdoptBest(cmd.Context(), projectID, root)
				if err != nil {
					return err
				}
				out.Best = best
			}

			return a.output(cmd.OutOrStdout(), out, func(w io.Writer) error {
				if len(candidates) == 0 {
					_, err := fmt.Fprintf(w, "No roadmap files under %s\n", out.Root)
					return err
				}
				tw := newTable(w)
				_, _ = fmt.Fprintln(tw, render(w, headerStyle, "SCORE\tPATH"))
				for _, c := range candidates {
					_, _ = fmt.Fprintf(tw, "%d\t%s\n", c.Score, c.Path)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if set {
					_, _ = fmt.Fprintf(w, "Roadmap for project #%d set to %s\n", projectID, out.Best)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project ID (with --set)")
	cmd.Flags().BoolVar(&set, "set", false, "store the best candidate as the project's roadmap")

	return cmd
}

// readInput reads a file, or stdin when name is "-".
func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return "", trackrerrors.ErrRoadmapNotFound(name)
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}
