// Package config holds the settings of a replica-sync process and loads them
// from flags, environment and an optional config file through viper.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/yuya-takeyama/replica-sync/internal/s3client"
	"github.com/yuya-takeyama/replica-sync/pkg/compare"
	"github.com/yuya-takeyama/replica-sync/pkg/synchronizer"
)

const (
	EnvPrefix       = "REPLICA_SYNC"
	DefaultInterval = 60 * time.Second
)

// Viper keys.
const (
	KeySource              = "source"
	KeyReplica             = "replica"
	KeyInterval            = "interval"
	KeyMode                = "mode"
	KeyAllowReadonlyModify = "allow_readonly_modify"
	KeyExclude             = "exclude"
	KeyDryRun              = "dry_run"
	KeyOnce                = "once"
	KeyLogFile             = "log_file"
	KeyResultJSONFile      = "result_json_file"
	KeyQuiet               = "quiet"
	KeyVerbose             = "verbose"
	KeyProfile             = "aws_profile"
	KeyRegion              = "aws_region"
)

// Config is the per-process sync configuration. It is never mutated once
// loaded.
type Config struct {
	Source              string
	Replica             string
	Interval            time.Duration
	Mode                compare.Mode
	AllowReadonlyModify bool
	Excludes            []string
	DryRun              bool
	Once                bool
	LogFile             string
	ResultJSONFile      string
	Quiet               bool
	Verbose             bool
	AWSProfile          string
	AWSRegion           string
}

// Load reads a Config out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	interval, err := parseInterval(v.GetString(KeyInterval))
	if err != nil {
		return nil, err
	}

	mode, err := compare.ParseMode(v.GetString(KeyMode))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Source:              v.GetString(KeySource),
		Replica:             v.GetString(KeyReplica),
		Interval:            interval,
		Mode:                mode,
		AllowReadonlyModify: v.GetBool(KeyAllowReadonlyModify),
		Excludes:            v.GetStringSlice(KeyExclude),
		DryRun:              v.GetBool(KeyDryRun),
		Once:                v.GetBool(KeyOnce),
		LogFile:             v.GetString(KeyLogFile),
		ResultJSONFile:      v.GetString(KeyResultJSONFile),
		Quiet:               v.GetBool(KeyQuiet),
		Verbose:             v.GetBool(KeyVerbose),
		AWSProfile:          v.GetString(KeyProfile),
		AWSRegion:           v.GetString(KeyRegion),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseInterval accepts whole seconds ("30") or a Go duration ("1m30s").
func parseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultInterval, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: must be seconds or a duration", raw)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source folder is required")
	}
	if c.Replica == "" {
		return fmt.Errorf("replica folder is required")
	}

	source, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("resolve source folder: %w", err)
	}
	replica, err := filepath.Abs(c.Replica)
	if err != nil {
		return fmt.Errorf("resolve replica folder: %w", err)
	}
	if source == replica {
		return fmt.Errorf("source and replica must be different folders")
	}
	if isWithin(source, replica) || isWithin(replica, source) {
		return fmt.Errorf("source %s and replica %s must not be nested in each other", source, replica)
	}

	if c.Interval <= 0 {
		return fmt.Errorf("synchronization interval must be positive, got %s", c.Interval)
	}

	if c.LogFile != "" && !filepath.IsAbs(c.LogFile) {
		return fmt.Errorf("log file path %q is not an absolute path", c.LogFile)
	}

	for _, pattern := range c.Excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	if strings.HasPrefix(c.ResultJSONFile, "s3://") {
		if _, _, err := s3client.ParseS3URI(c.ResultJSONFile); err != nil {
			return fmt.Errorf("invalid result JSON destination: %w", err)
		}
	}

	return nil
}

// SyncOptions returns the subset of the configuration the synchronizer needs.
func (c *Config) SyncOptions() synchronizer.Options {
	return synchronizer.Options{
		Mode:                c.Mode,
		AllowReadonlyModify: c.AllowReadonlyModify,
		Excludes:            c.Excludes,
		DryRun:              c.DryRun,
	}
}

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
