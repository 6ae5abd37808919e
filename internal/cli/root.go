// Package cli wires the analyzer commands onto cobra.
package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/adapter"
	"github.com/kapu/youtube-channel-analyzer/internal/analytics"
	"github.com/kapu/youtube-channel-analyzer/internal/config"
	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/util"
	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
)

// Options carries process-level settings into the command tree.
type Options struct {
	Version string
	// when nil a logger is built from the configuration
	Logger *zap.Logger
	// when nil time.Now is used
	Now func() time.Time
}

type flags struct {
	channelsFile string
	maxVideos    int
	asJSON       bool
	noColor      bool
	sortBy       string
	logLevel     string
}

type runner struct {
	opts  Options
	flags flags
}

// NewRootCommand builds the analyzer command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:   "analyzer",
		Short: "YouTube channel analytics",
		Long: `analyzer fetches channel and video statistics from the YouTube Data API,
stores them, and ranks the channels against each other.

Example usage:
  analyzer run                      # fetch, analyze and print the ranking
  analyzer fetch --max-videos 0     # store every upload of every channel
  analyzer report --json            # rank from stored data only`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.channelsFile, "channels", "", "channels file, one ID per line (default CHANNELS_FILE)")
	pf.BoolVar(&r.flags.asJSON, "json", false, "print the report as JSON")
	pf.BoolVar(&r.flags.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&r.flags.sortBy, "sort-by", domain.MetricAvgViews, "rank metric that orders the report")
	pf.StringVar(&r.flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		r.newRunCommand(),
		r.newFetchCommand(),
		r.newReportCommand(),
		r.newAuthCommand(),
		r.newVersionCommand(),
	)
	return root
}

// session is the per-invocation state shared by commands.
type session struct {
	cfg        *config.Config
	logger     *zap.Logger
	channelIDs []string
}

// configure reads configuration, applies flag overrides, validates and
// prepares the logger. adjust runs before validation.
func (r *runner) configure(cmd *cobra.Command, adjust func(*config.Config)) (*session, error) {
	cfg := config.Read()

	if r.flags.channelsFile != "" {
		cfg.Run.ChannelsFile = r.flags.channelsFile
	}
	if cmd.Flags().Changed("max-videos") {
		cfg.Run.MaxVideosToFetch = r.flags.maxVideos
	}
	if r.flags.logLevel != "" {
		cfg.Logging.Level = r.flags.logLevel
	}
	if adjust != nil {
		adjust(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError("config validation failed", err)
	}
	if !analytics.IsRankedMetric(r.flags.sortBy) {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown sort metric %q", r.flags.sortBy), "sort-by", r.flags.sortBy)
	}

	logger := r.opts.Logger
	if logger == nil {
		var err error
		logger, err = util.NewLogger(cfg.Logging.Level, cfg.Logging.File, cfg.Logging.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger = logger.With(zap.String("runId", uuid.NewString()), zap.String("command", cmd.Name()))

	ids, err := config.LoadChannelIDs(cfg.Run.ChannelsFile)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.NewValidationError("no channel IDs found", "CHANNELS_FILE", cfg.Run.ChannelsFile)
	}

	logger.Info("Configuration loaded",
		zap.String("channelsFile", cfg.Run.ChannelsFile),
		zap.Int("channels", len(ids)),
		zap.String("dbDriver", cfg.Database.Driver),
		zap.Int("maxVideos", cfg.Run.MaxVideosToFetch),
		zap.Bool("allVideos", cfg.Run.FetchesAllVideos()),
		zap.Bool("fetchFromAPI", cfg.Run.FetchFromAPI),
		zap.Bool("analyzeFromDB", cfg.Run.AnalyzeFromDB))

	return &session{cfg: cfg, logger: logger, channelIDs: ids}, nil
}

func (r *runner) reportOptions() adapter.ReportOptions {
	return adapter.ReportOptions{
		SortBy:   r.flags.sortBy,
		UseColor: !r.flags.noColor && !color.NoColor,
	}
}

func (r *runner) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "analyzer %s\n", r.opts.Version)
		},
	}
}
