package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/app"
	"github.com/kapu/youtube-channel-analyzer/internal/config"
	"github.com/kapu/youtube-channel-analyzer/internal/service/pipeline"
	"github.com/kapu/youtube-channel-analyzer/internal/service/youtube"
)

func (r *runner) newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch (when enabled), analyze (when enabled) and print the ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := r.configure(cmd, nil)
			if err != nil {
				return err
			}
			defer s.logger.Sync()

			hasCredentials := s.cfg.YouTube.APIKey() != "" || s.cfg.YouTube.UsesOAuth()
			c, err := app.Build(cmd.Context(), s.cfg, s.logger, app.BuildOptions{
				NeedAPI:     hasCredentials,
				OptionalAPI: !s.cfg.Run.FetchFromAPI,
			})
			if err != nil {
				return err
			}
			defer c.Close()

			switch {
			case s.cfg.Run.FetchFromAPI:
				summary := c.Fetcher.FetchAll(cmd.Context(), s.channelIDs)
				writeFetchSummary(cmd.ErrOrStderr(), summary)
			case c.Fetcher != nil:
				c.Fetcher.FillMissingMetadata(cmd.Context(), s.channelIDs)
			default:
				s.logger.Info("Skipping API data fetch")
			}

			if !s.cfg.Run.AnalyzeFromDB {
				s.logger.Info("Skipping database analysis")
				return nil
			}
			return r.analyzeAndRender(cmd, s, c)
		},
	}
	cmd.Flags().IntVar(&r.flags.maxVideos, "max-videos", 0, "uploads to fetch per channel, 0 for all (default MAX_VIDEOS_TO_FETCH)")
	return cmd
}

func (r *runner) newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch channels and videos from the API into storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := r.configure(cmd, func(cfg *config.Config) { cfg.Run.FetchFromAPI = true })
			if err != nil {
				return err
			}
			defer s.logger.Sync()

			c, err := app.Build(cmd.Context(), s.cfg, s.logger, app.BuildOptions{NeedAPI: true})
			if err != nil {
				return err
			}
			defer c.Close()

			summary := c.Fetcher.FetchAll(cmd.Context(), s.channelIDs)
			writeFetchSummary(cmd.OutOrStdout(), summary)

			used, remaining, reset := c.YouTube.QuotaStatus()
			s.logger.Info("YouTube API quota status",
				zap.Int("used", used),
				zap.Int("remaining", remaining),
				zap.Time("reset", reset))

			return cmd.Context().Err()
		},
	}
	cmd.Flags().IntVar(&r.flags.maxVideos, "max-videos", 0, "uploads to fetch per channel, 0 for all (default MAX_VIDEOS_TO_FETCH)")
	return cmd
}

func (r *runner) newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Rank channels from stored data without calling the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := r.configure(cmd, func(cfg *config.Config) { cfg.Run.FetchFromAPI = false })
			if err != nil {
				return err
			}
			defer s.logger.Sync()

			c, err := app.Build(cmd.Context(), s.cfg, s.logger, app.BuildOptions{})
			if err != nil {
				return err
			}
			defer c.Close()

			return r.analyzeAndRender(cmd, s, c)
		},
	}
}

func (r *runner) newAuthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only YouTube access and save the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Read()
			if !cfg.YouTube.UsesOAuth() {
				return fmt.Errorf("YOUTUBE_OAUTH_CREDENTIALS is not set")
			}

			oauthCfg, err := youtube.LoadOAuthConfig(cfg.YouTube.OAuthCredentials)
			if err != nil {
				return err
			}
			return youtube.Authorize(cmd.Context(), oauthCfg, cfg.YouTube.OAuthToken,
				cmd.InOrStdin(), cmd.OutOrStdout(), r.opts.Logger)
		},
	}
}

func (r *runner) analyzeAndRender(cmd *cobra.Command, s *session, c *app.Container) error {
	results, err := c.Analyzer.AnalyzeAll(cmd.Context(), s.channelIDs, r.opts.Now())
	if err != nil {
		return err
	}
	s.logger.Info("Ranking completed", zap.Int("channels", len(results)))

	formatter := c.NewReportFormatter(cmd.OutOrStdout(), r.reportOptions())
	return formatter.Render(results, r.flags.asJSON)
}

func writeFetchSummary(w io.Writer, summary pipeline.FetchSummary) {
	fmt.Fprintf(w, "Fetched %d channels: %d videos saved, %d failed\n",
		len(summary.Outcomes), summary.VideosSaved(), summary.Failed())
	for _, o := range summary.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(w, "  %s: %v\n", o.ChannelID, o.Err)
		case o.Skipped:
			fmt.Fprintf(w, "  %s: skipped\n", o.ChannelID)
		}
	}
	if summary.QuotaExceeded {
		fmt.Fprintln(w, "YouTube API quota exhausted; remaining channels were skipped")
	}
}
