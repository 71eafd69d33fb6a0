package cli

import (
	"papergallery/internal/flags"
	"papergallery/internal/output"
	"papergallery/internal/sources"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the projects in the source list",
		Long: `List the projects in the source list, grouped the way the gallery filters them.

The list is parsed exactly as the transform parses it, so this is a quick way to
check which group a project lands in before a build. Nothing is fetched.

Examples:
  papergallery sources
  papergallery sources --sources papers.txt --format json

Output:
  text (default): one heading per group followed by its projects, then a
  summary line. Projects listed before any '#' line appear under (ungrouped).
  json: a single array of {"id","group"} objects.
  ndjson: one {"id","group"} object per line.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := sources.Load(a.cfg.Sources.File)
			if err != nil {
				return err
			}
			a.logger.Debug("loaded source list",
				zap.String("file", a.cfg.Sources.File),
				zap.Int("sources", len(list)),
				zap.Strings("groups", sources.Groups(list)))

			sink, err := output.NewConsoleSink(cmd.OutOrStdout(), a.cfg.Output.Format)
			if err != nil {
				return err
			}
			for _, src := range list {
				if err := sink.Write(src); err != nil {
					return err
				}
			}
			return sink.Close()
		},
	}
	cmd.Flags().StringVar(&a.cfg.Output.Format, flags.FlagFormat, a.cfg.Output.Format, "Output format: text|json|ndjson")
	return cmd
}
