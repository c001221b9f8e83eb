package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZacxDev/clipcaster/internal/logging"
	"github.com/ZacxDev/clipcaster/pkg/types"
	"github.com/ZacxDev/clipcaster/pkg/videoprocessor"
)

var (
	rootCmd = &cobra.Command{
		Use:   "clipcaster",
		Short: "Cut subtitled portrait clips out of a long video",
		Long: `clipcaster turns a long-form video and a list of time ranges into
1080x1920 clips with subtitles transcribed from their own audio.

The timestamp file holds one range per line, MM:SS or HH:MM:SS:
  00:12-00:45
  01:02:10-01:03:00

Examples:
  # Burn Hindi subtitles into every clip
  clipcaster run -i talk.mp4 -t ranges.txt -w ./work -o ./clips --language hi

  # Check which ranges will be cut without encoding anything
  clipcaster ranges -i talk.mp4 -t ranges.txt -w ./work -o ./clips`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Produce subtitled clips for every range",
		Long: fmt.Sprintf(`Extract, reframe, transcribe and subtitle every range in the timestamp file.

Supported profiles:
%s
Example:
  clipcaster run -i talk.mp4 -t ranges.txt -w ./work -o ./clips --profile youtube-shorts --mode soft`,
			formatSupportedPlatforms()),
		RunE: runClips,
	}

	rangesCmd = &cobra.Command{
		Use:   "ranges",
		Short: "Show the clip ranges a run would produce",
		RunE:  showRanges,
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List output profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderProfiles(videoprocessor.Profiles()))
			return nil
		},
	}
)

func formatSupportedPlatforms() string {
	var sb strings.Builder
	for _, name := range videoprocessor.GetSupportedPlatforms() {
		sb.WriteString(fmt.Sprintf("- %s\n", name))
	}
	return sb.String()
}

func addPathFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "Source video file")
	cmd.Flags().StringP("timestamps", "t", "", "Timestamp file with one range per line")
	cmd.Flags().StringP("work-dir", "w", "", "Directory for intermediate files")
	cmd.Flags().StringP("output", "o", "", "Directory for finished clips")
	cmd.Flags().StringP("profile", "p", "", fmt.Sprintf("Output profile (%s)", strings.Join(videoprocessor.GetSupportedPlatforms(), ", ")))
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addPathFlags(runCmd)
	runCmd.Flags().String("format", "", "Output container (mp4, mkv, mov, webm)")
	runCmd.Flags().String("mode", "", "Subtitle mode: burn or soft")
	runCmd.Flags().Bool("retain-subtitles", false, "Keep the .srt next to each clip")
	runCmd.Flags().StringP("language", "l", "", "Spoken language hint, e.g. hi")
	runCmd.Flags().String("model", "", "Whisper model name")
	runCmd.Flags().String("font-file", "", "Font file for burned subtitles")
	runCmd.Flags().Int("font-size", 0, "Font size for burned subtitles")
	runCmd.Flags().Int("workers", 0, "Clips processed concurrently")

	addPathFlags(rangesCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rangesCmd)
	rootCmd.AddCommand(profilesCmd)
}

// loadOptions reads --config and applies every flag the user set on top.
func loadOptions(cmd *cobra.Command) (videoprocessor.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	opts, err := videoprocessor.LoadOptions(path)
	if err != nil {
		return opts, err
	}
	opts.Verbose, _ = cmd.Flags().GetBool("verbose")

	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	str("input", &opts.Paths.SourceVideo)
	str("timestamps", &opts.Paths.TimestampFile)
	str("work-dir", &opts.Paths.WorkDir)
	str("output", &opts.Paths.OutputDir)
	str("profile", &opts.Output.Profile)
	str("format", &opts.Output.Format)
	str("language", &opts.Transcription.Language)
	str("model", &opts.Transcription.Model)
	str("font-file", &opts.Subtitles.Style.FontFile)
	num("font-size", &opts.Subtitles.Style.FontSize)
	num("workers", &opts.Pipeline.Workers)
	if flags.Lookup("mode") != nil && flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		opts.Subtitles.Mode = types.CompositionMode(mode)
	}
	if flags.Lookup("retain-subtitles") != nil && flags.Changed("retain-subtitles") {
		opts.Subtitles.Retain, _ = flags.GetBool("retain-subtitles")
	}
	return opts, nil
}

func runClips(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(opts.Verbose)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := videoprocessor.ProduceClips(ctx, opts, logger)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
	}
	if err != nil {
		return err
	}

	if !report.OK() {
		failed := len(report.Failures())
		if failed == 0 {
			return errors.New("no clips were produced")
		}
		return errors.Errorf("%d of %d clips failed", failed, len(report.Results))
	}
	logger.Info("all clips produced", zap.Int("clips", report.Succeeded()), zap.String("manifest", report.ManifestPath))
	return nil
}

func showRanges(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(opts.Verbose)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer logger.Sync() //nolint:errcheck

	source, plan, err := videoprocessor.PlanRanges(cmd.Context(), opts, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderPlan(source, plan))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
