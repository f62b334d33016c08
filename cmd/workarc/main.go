package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openarchive/workarc/internal/archive"
	"github.com/openarchive/workarc/internal/mirror"
	"github.com/openarchive/workarc/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	home, _           = os.UserHomeDir()
	defaultConfigPath = filepath.Join(home, ".workarc", "config.json")
	configFileName    = "config"
	logLevel          = new(slog.LevelVar)
)

var (
	red        = color.New(color.FgHiRed, color.Bold).SprintFunc()
	errSkipped = errors.New("directories were skipped")
)

var rootCmd = &cobra.Command{
	Use:   "workarc WORK_DIR ARCHIVE_DIR",
	Short: "Archive the subdirectories of a working directory",
	Long: `Copy the subdirectories of a working directory to an archive directory.
Subsequent runs re-sync the copies.

The archive is expected to be a superset of the working directory, where the
working directory is the "owner" of the subdirectories it does have.`,
	Version: version.Detailed(),
	Args:    cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: runArchive,
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().BoolP("dry-run", "d", false, "Do not make any changes.")
	rootCmd.Flags().BoolP("report-skipped", "e", false,
		"If any directories are skipped then report that to stderr and return an error code. "+
			"Useful to warn you of problems when run in a cron job.")
	rootCmd.Flags().StringP("mark", "m", "",
		"Mark an unmarked directory that exists in both work dir and archive dir and exit. "+
			"This directory will then get synced on a subsequent run. "+
			"By default such directories are ignored to avoid accidental data loss by "+
			"overwriting any changes on the archive side.")
	rootCmd.Flags().BoolP("mark-new", "n", false,
		"Automatically mark (and sync) all unmarked sub directories that exist "+
			"in both work dir and archive dir. Use with caution.")
	rootCmd.Flags().BoolP("rename", "r", false,
		"Attempt to detect files that have been renamed and rename the archive's copy. "+
			"Cheaper than rsync's copy/delete.")
	rootCmd.Flags().BoolP("verbose", "v", false, "Extra logging.")
	rootCmd.Flags().StringArray("rsync-arg", nil,
		"Argument to forward to rsync. Can be specified multiple times. "+
			"If the argument begins with a dash, use this format: --rsync-arg=\"--no-p\"")

	// skips the rsync invocation, for exercising the rename paths in tests
	rootCmd.Flags().Bool("no-mirror", false, "")
	rootCmd.Flags().MarkHidden("no-mirror")

	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "workarc config file")
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg := &archive.Config{
		WorkDir:       args[0],
		ArchiveDir:    args[1],
		DryRun:        viper.GetBool("dry_run"),
		Verbose:       viper.GetBool("verbose"),
		MarkNew:       viper.GetBool("mark_new"),
		Mark:          viper.GetString("mark"),
		RenamePass:    viper.GetBool("rename"),
		ReportSkipped: viper.GetBool("report_skipped"),
		MirrorArgs:    viper.GetStringSlice("rsync_arg"),
		NoMirror:      viper.GetBool("no_mirror"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// args are valid, failures past this point are not usage errors
	cmd.SilenceUsage = true
	if cfg.Verbose {
		logLevel.Set(slog.LevelDebug)
	}

	rsync := mirror.NewRsync(cfg.DryRun, cfg.Verbose, cfg.MirrorArgs, nil)
	plan, err := archive.New(cfg, rsync, nil).Run(cmd.Context())
	if err != nil {
		return err
	}

	if len(plan.Skipped) > 0 && cfg.ReportSkipped {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, red(fmt.Sprintf(
			"Skipped directories while archiving from %q to %q:", cfg.WorkDir, cfg.ArchiveDir)))
		for _, s := range plan.Skipped {
			fmt.Fprintf(os.Stderr, "%s : %s\n", filepath.Base(s.WorkPath), s.Reason)
		}
		cmd.SilenceErrors = true
		return errSkipped
	}
	return nil
}

func main() {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// config path
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".workarc"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	// the config file is optional
	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	// Bind flags to viper
	viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("report_skipped", cmd.Flags().Lookup("report-skipped"))
	viper.BindPFlag("mark", cmd.Flags().Lookup("mark"))
	viper.BindPFlag("mark_new", cmd.Flags().Lookup("mark-new"))
	viper.BindPFlag("rename", cmd.Flags().Lookup("rename"))
	viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	viper.BindPFlag("rsync_arg", cmd.Flags().Lookup("rsync-arg"))
	viper.BindPFlag("no_mirror", cmd.Flags().Lookup("no-mirror"))

	// Set up environment variables
	viper.SetEnvPrefix("WORKARC")
	viper.AutomaticEnv()

	return nil
}
