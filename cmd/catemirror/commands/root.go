package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"catemirror/internal/catalog"
	"catemirror/internal/components/telemetry"
	"catemirror/internal/crawler"
	"catemirror/internal/mirror"
	"catemirror/internal/scrapers/cate"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	path     string
	config   string
	catalog  string
	username string
	class    string
	period   int
	year     string
	discover bool
	verbose  bool
}

var flags rootFlags

func init() {
	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.config, "config", "c", "catemirror.json5", "The configuration file.")
	persistent.StringVar(&flags.catalog, "catalog", "", "A JSON5 catalog of modules, the built-in catalog is used when empty.")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "Log every request and debug message.")

	local := rootCmd.Flags()
	local.StringVarP(&flags.path, "path", "p", "", "The directory to mirror into, created if absent.")
	local.StringVar(&flags.username, "username", "", "The portal username.")
	local.StringVar(&flags.class, "class", "", "The class whose files are requested (c1, c2, c3, j1, j2, j3).")
	local.IntVar(&flags.period, "period", 0, "The period of the timetable.")
	local.StringVar(&flags.year, "year", "", "The academic year.")
	local.BoolVar(&flags.discover, "discover", false, "Read the timetable to discover notes pages and exercises.")
}

var rootCmd = &cobra.Command{
	Use:   "catemirror [-p <path>] [--discover]",
	Short: "catemirror mirrors lecture notes and exercises from CATe into a local directory.",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(os.Stderr, flags.verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		runMirror(cmd)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// applyFlags overrides the configuration with the flags given explicitly.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	changed := cmd.Flags().Changed
	if changed("path") {
		cfg.Root = flags.path
	}
	if changed("catalog") {
		cfg.Catalog = flags.catalog
	}
	if changed("username") {
		cfg.Username = flags.username
	}
	if changed("class") {
		cfg.Class = flags.class
	}
	if changed("period") {
		cfg.Period = flags.period
	}
	if changed("year") {
		cfg.Year = flags.year
	}
	if changed("discover") {
		cfg.Discover = flags.discover
	}
}

func loadCatalog(path string) ([]catalog.Module, error) {
	modules := catalog.Default()
	if path != "" {
		var err error
		modules, err = catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}
	err := catalog.Validate(modules)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return modules, nil
}

func runMirror(cmd *cobra.Command) {
	ctx := cmd.Context()
	cfg, err := loadConfig(flags.config)
	if err != nil {
		fatal("failed to read config", err)
	}
	applyFlags(cmd, &cfg)

	shutdown, err := telemetry.SetupTracing(ctx, "catemirror", cfg.Telemetry)
	if err != nil {
		fatal("failed to setup tracing", err)
	}
	defer shutdown(context.WithoutCancel(ctx))

	tel := telemetry.SlogAPI{}

	modules, err := loadCatalog(cfg.Catalog)
	if err != nil {
		fatal("failed to load catalog", err)
	}

	err = ensureRoot(cfg.Root)
	if err != nil {
		fatal("failed to create mirror root", err)
	}

	sessionOpts, err := cfg.sessionOptions()
	if err != nil {
		fatal("failed to configure session", err)
	}
	session, err := cate.NewSession(sessionOpts, tel)
	if err != nil {
		fatal("failed to create session", err)
	}
	err = session.Authenticate(ctx)
	if err != nil {
		fatal("failed to authenticate", err)
	}

	sites, err := cfg.sites(tel)
	if err != nil {
		fatal("failed to configure site parsers", err)
	}

	slog.Info("mirroring", "username", cfg.Username, "modules", len(modules), "root", cfg.Root)
	c := crawler.NewCrawler(session, mirror.NewFilesystemSink(tel), crawler.Options{
		Root:      cfg.Root,
		Discover:  cfg.Discover,
		Overwrite: cfg.Overwrite,
		MaxDepth:  cfg.MaxDepth,
		Sites:     &sites,
		Progress:  os.Stdout,
	}, tel)
	report, err := c.Run(ctx, modules)

	renderReport(os.Stdout, report)
	telemetry.ReportPerfStats(tel)

	if err != nil {
		fatal("mirroring stopped", err)
	}
}
