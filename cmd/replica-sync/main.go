package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yuya-takeyama/replica-sync/internal/config"
	"github.com/yuya-takeyama/replica-sync/internal/daemon"
	"github.com/yuya-takeyama/replica-sync/internal/logging"
	"github.com/yuya-takeyama/replica-sync/internal/report"
	"github.com/yuya-takeyama/replica-sync/internal/s3client"
	"github.com/yuya-takeyama/replica-sync/pkg/fsys"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// flag name -> config key
var flagKeys = map[string]string{
	"interval":              config.KeyInterval,
	"mode":                  config.KeyMode,
	"allow-readonly-modify": config.KeyAllowReadonlyModify,
	"exclude":               config.KeyExclude,
	"dryrun":                config.KeyDryRun,
	"once":                  config.KeyOnce,
	"log-file":              config.KeyLogFile,
	"result-json-file":      config.KeyResultJSONFile,
	"quiet":                 config.KeyQuiet,
	"verbose":               config.KeyVerbose,
	"profile":               config.KeyProfile,
	"region":                config.KeyRegion,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "replica-sync <source> <replica> [interval] [log-file]",
		Short: "One-way periodic folder synchronization",
		Long: `replica-sync keeps a replica folder identical to a source folder.
Every interval it creates, updates and deletes entries in the replica until it
matches the source.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:    cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.String("interval", "60", "Synchronization interval in seconds or as a duration (e.g. 1m30s)")
	flags.String("mode", "size-time", `Change detection: "size-time" or "md5"`)
	flags.Bool("allow-readonly-modify", false, "Update and delete read-only files in the replica")
	flags.StringSlice("exclude", nil, "Exclude patterns (multiple allowed)")
	flags.Bool("dryrun", false, "Shows operations without executing")
	flags.Bool("once", false, "Run a single cycle and exit")
	flags.String("log-file", "", "Absolute path of a log file")
	flags.String("result-json-file", "", "Path or s3://bucket/key to output each cycle's result as JSON")
	flags.Bool("quiet", false, "Suppress non-error output")
	flags.Bool("verbose", false, "Log phase progress")
	flags.String("profile", "", "AWS profile to use for s3:// result files")
	flags.String("region", "", "AWS region (uses default if not specified)")
	flags.StringP("config", "c", "", "Config file (yaml, json or toml)")

	return cmd
}

// loadConfig merges, lowest first: config file, environment, flags and
// positional arguments.
func loadConfig(cmd *cobra.Command, v *viper.Viper, args []string) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	positional := []string{config.KeySource, config.KeyReplica, config.KeyInterval, config.KeyLogFile}
	for i, arg := range args {
		v.Set(positional[i], arg)
	}

	return config.Load(v)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func run(ctx context.Context, cfg *config.Config) error {
	log, closeLog := logging.Setup(logging.Options{
		LogFile: cfg.LogFile,
		Quiet:   cfg.Quiet,
		Verbose: cfg.Verbose,
	})
	defer closeLog()
	slog.SetDefault(log)

	writer := &report.Writer{}
	if strings.HasPrefix(cfg.ResultJSONFile, "s3://") {
		uploader, err := newS3Client(ctx, cfg)
		if err != nil {
			return err
		}
		writer.Uploader = uploader
	}

	lock, err := daemon.NewPairLock(os.TempDir(), cfg.Source, cfg.Replica)
	if err != nil {
		return err
	}

	job := &daemon.Job{
		FS:         fsys.NewOS(),
		Options:    cfg.SyncOptions(),
		Source:     cfg.Source,
		Replica:    cfg.Replica,
		Lock:       lock,
		Writer:     writer,
		ReportDest: cfg.ResultJSONFile,
		Logger:     log,
	}
	runner := &daemon.Runner{
		Interval: cfg.Interval,
		Once:     cfg.Once,
		Logger:   log,
		Cycle:    job.Run,
	}

	log.Info("replica-sync started",
		"version", version,
		"source", cfg.Source,
		"replica", cfg.Replica,
		"interval", cfg.Interval,
		"mode", cfg.Mode.String(),
		"dryrun", cfg.DryRun,
	)
	defer log.Info("Bye!")
	return runner.Start(ctx)
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3client.Client, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWSProfile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}
	if cfg.AWSRegion != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3client.NewClient(awsCfg), nil
}
