package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trackr/internal/importer"
)

// newAICmd creates the ai command for roadmap drafting.
func newAICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Draft roadmaps with the completion provider",
		Long: `Draft roadmaps with the configured completion provider.

Without a provider (completion.provider: none, or no API key) drafts fall
back to a starter roadmap or the checklist lines already in the text.`,
	}

	cmd.AddCommand(newAIGenerateCmd(a))
	cmd.AddCommand(newAITemplateCmd(a))

	return cmd
}

func newAIGenerateCmd(a *app) *cobra.Command {
	var (
		mode    string
		idea    string
		rawFile string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a roadmap draft",
		Long: `Generate a roadmap draft.

Examples:
  trackr ai generate --idea "A recipe sharing site"
  trackr ai generate --mode reformat --raw notes.md
  pbpaste | trackr ai generate --mode reformat --raw -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := importer.GenerateRequest{Mode: mode, Idea: idea}
			if rawFile != "" {
				raw, err := readInput(cmd.InOrStdin(), rawFile)
				if err != nil {
					return err
				}
				req.Raw = raw
			}

			svc, err := a.importer(cmd.Context())
			if err != nil {
				return err
			}
			out, err := svc.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out.Roadmap)
				if err == nil && out.Provider == importer.ProviderFallback && !a.quiet {
					_, err = fmt.Fprintln(cmd.ErrOrStderr(), render(cmd.ErrOrStderr(), subtleStyle, "(offline draft: no completion provider)"))
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", importer.ModeSkeleton, "skeleton or reformat")
	cmd.Flags().StringVar(&idea, "idea", "", "project idea for a skeleton roadmap")
	cmd.Flags().StringVar(&rawFile, "raw", "", "file with text to reformat (- for stdin)")

	return cmd
}

func newAITemplateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the roadmap checklist template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.importer(cmd.Context())
			if err != nil {
				return err
			}
			tmpl := svc.Template()
			return a.output(cmd.OutOrStdout(), map[string]string{"template": tmpl}, func(w io.Writer) error {
				_, err := fmt.Fprint(w, tmpl)
				return err
			})
		},
	}
}
