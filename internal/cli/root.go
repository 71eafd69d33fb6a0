package cli

import (
	"context"
	"fmt"
	"os"

	"papergallery/internal/aggregate"
	"papergallery/internal/config"
	"papergallery/internal/fetcher"
	"papergallery/internal/flags"
	"papergallery/internal/gallery"
	gh "papergallery/internal/github"
	"papergallery/internal/mdast"
	"papergallery/internal/output"
	"papergallery/internal/plugin"
	"papergallery/internal/render"
	"papergallery/internal/sources"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = NewRootCommand()

// app carries the state shared by the root command and its subcommands for
// one invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	directive string
	transform string
	role      string

	lookupEnv   func(string) (string, bool)
	buildLogger func(verbose bool) (*zap.Logger, error)
}

func newApp() *app {
	return &app{
		cfg:         config.New(),
		logger:      zap.NewNop(),
		lookupEnv:   os.LookupEnv,
		buildLogger: newLogger,
	}
}

// newLogger writes JSON lines to stderr; stdout carries the plugin payload.
func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

// NewRootCommand builds the papergallery command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papergallery",
		Short: "Document plugin that renders a gallery of paper cards",
		Long: `papergallery is an executable plugin for a MyST-style document host.

Authors place a paper-cards directive in a page; at build time the host runs the
document transform, which fetches every project listed in the source list,
renders one card per project and replaces each directive with a grid of cards.

Entry points (the host calls these; at most one per invocation):
	papergallery                            print the plugin declaration
	papergallery --directive paper-cards    expand a directive (payload on stdin)
	papergallery --transform <name>         transform a document tree (stdin -> stdout)

Source list:
	One project identifier per line. A line starting with '#' sets the group
	(for example a year) for the identifiers that follow. Blank lines are ignored.

Environment:
	Every setting can also be supplied through the environment, which is how the
	host passes configuration. Explicit flags win.

	PAPER_GALLERY_SOURCES        --sources
	PAPER_GALLERY_OWNER          --owner
	PAPER_GALLERY_BRANCH         --branch
	PAPER_GALLERY_RAW_BASE       --raw-base
	PAPER_GALLERY_PAGES_BASE     --pages-base
	PAPER_GALLERY_VIA            --via
	NEXUS_LOCAL_PATH             --local-path
	PAPER_GALLERY_CONCURRENCY    --concurrency
	PAPER_GALLERY_FETCH_TIMEOUT  --fetch-timeout
	PAPER_GALLERY_VERBOSE        --verbose

	GitHub authentication (optional for public repositories) is read from
	GITHUB_TOKEN, then GH_TOKEN, then 'gh auth token'.

Output:
	stdout carries only the JSON payload for the host. Diagnostics are JSON log
	lines on stderr; a project that cannot be fetched or rendered is logged and
	left out of the gallery.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		RunE:              a.run,
	}

	// Entry points
	cmd.Flags().StringVar(&a.directive, flags.FlagDirective, "", "Expand the named directive; reads the directive payload from stdin")
	cmd.Flags().StringVar(&a.transform, flags.FlagTransform, "", "Run the named document transform; reads the tree from stdin")
	cmd.Flags().StringVar(&a.role, flags.FlagRole, "", "Expand the named role (this plugin defines none)")
	cmd.MarkFlagsMutuallyExclusive(flags.FlagDirective, flags.FlagTransform, flags.FlagRole)

	// Sources
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfg.Sources.File, flags.FlagSources, a.cfg.Sources.File, "Source list file")

	// Remote
	pf.StringVar(&a.cfg.Remote.Owner, flags.FlagOwner, a.cfg.Remote.Owner, "GitHub account hosting the projects (name or URL)")
	pf.StringVar(&a.cfg.Remote.Branch, flags.FlagBranch, a.cfg.Remote.Branch, "Branch holding myst.yml and _gallery_info.yml")
	pf.StringVar(&a.cfg.Remote.RawBase, flags.FlagRawBase, "", "Raw file URL prefix (default: https://raw.githubusercontent.com/<owner>)")
	pf.StringVar(&a.cfg.Remote.PagesBase, flags.FlagPagesBase, "", "Published site URL prefix (default: https://<owner>.github.io)")
	pf.StringVar(&a.cfg.Remote.Via, flags.FlagVia, a.cfg.Remote.Via, "Document reader: raw|api|local")
	pf.StringVar(&a.cfg.Remote.LocalPath, flags.FlagLocalPath, "", "Read descriptors from <path>/<project>/ instead of the network")

	// Runtime
	pf.IntVar(&a.cfg.Runtime.Concurrency, flags.FlagConcurrency, a.cfg.Runtime.Concurrency, "Projects fetched at once (0 = no limit)")
	pf.DurationVar(&a.cfg.Runtime.FetchTimeout, flags.FlagFetchTimeout, a.cfg.Runtime.FetchTimeout, "Timeout per project fetch (0 = none)")
	pf.BoolVar(&a.cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug logging (prints every HTTP request)")

	cmd.AddCommand(newSourcesCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := flags.ApplyEnv(cmd.Flags(), a.lookupEnv); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger, err := a.buildLogger(a.cfg.Runtime.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case cmd.Flags().Changed(flags.FlagRole):
		return plugin.RunRole(a.role)

	case cmd.Flags().Changed(flags.FlagDirective):
		var data plugin.DirectiveData
		if err := output.DecodePayload(cmd.InOrStdin(), &data); err != nil {
			return err
		}
		nodes, err := plugin.RunDirective(a.directive, data)
		if err != nil {
			return err
		}
		return output.EncodePayload(cmd.OutOrStdout(), nodes)

	case cmd.Flags().Changed(flags.FlagTransform):
		var tree mdast.Node
		if err := output.DecodePayload(cmd.InOrStdin(), &tree); err != nil {
			return err
		}
		t, err := a.transformer(ctx)
		if err != nil {
			return err
		}
		out, err := plugin.RunTransform(ctx, a.transform, tree, t)
		if err != nil {
			return err
		}
		return output.EncodePayload(cmd.OutOrStdout(), out)

	default:
		return output.EncodePayload(cmd.OutOrStdout(), plugin.Describe())
	}
}

// transformer wires reader, fetcher, renderer and aggregator from the
// validated config.
func (a *app) transformer(ctx context.Context) (*gallery.Transformer, error) {
	cfg := a.cfg
	locator := fetcher.Locator{
		RawBase:   cfg.Remote.RawBase,
		PagesBase: cfg.Remote.PagesBase,
		Branch:    cfg.Remote.Branch,
	}

	reader, err := a.reader(ctx, locator)
	if err != nil {
		return nil, err
	}

	f := fetcher.NewFetcher(reader,
		fetcher.WithTimeout(cfg.Runtime.FetchTimeout),
		fetcher.WithLogger(a.logger))
	agg, err := aggregate.NewAggregator(f, render.NewRenderer(locator),
		aggregate.WithConcurrency(cfg.Runtime.Concurrency),
		aggregate.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	load := func() ([]sources.Source, error) {
		return sources.Load(cfg.Sources.File)
	}
	return gallery.NewTransformer(agg, load, gallery.WithLogger(a.logger))
}

func (a *app) reader(ctx context.Context, locator fetcher.Locator) (fetcher.Reader, error) {
	cfg := a.cfg
	if cfg.Remote.Via == config.ViaLocal {
		a.logger.Debug("reading descriptors from local checkouts", zap.String("path", cfg.Remote.LocalPath))
		return fetcher.NewLocalReader(cfg.Remote.LocalPath), nil
	}

	// Public repositories work without a token, so a failed lookup only
	// downgrades to anonymous requests.
	token, source, err := gh.ResolveAuthToken(ctx, "")
	if err != nil {
		a.logger.Warn("github token unavailable; continuing unauthenticated", zap.Error(err))
		token = ""
	} else if token != "" {
		a.logger.Debug("github token resolved", zap.String("source", string(source)))
	}

	var opts []gh.Option
	if cfg.Runtime.Verbose {
		opts = append(opts, gh.WithLogger(a.logger.Named("http")))
	}
	client, err := gh.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	budget := fetcher.NewRequestBudget()
	if cfg.Remote.Via == config.ViaAPI {
		return fetcher.NewAPIReader(client, cfg.Remote.Owner, cfg.Remote.Branch, budget), nil
	}
	return fetcher.NewRawReader(client.HTTP, locator, budget), nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
