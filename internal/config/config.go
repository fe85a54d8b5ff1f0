package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"backlog/internal/domain"
)

const (
	// DefaultBacklogDir holds tasks/ and config.yml, relative to the project root
	DefaultBacklogDir = "backlog"
	// ConfigFileName is the project configuration file inside the backlog directory
	ConfigFileName = "config.yml"
	// EnvPrefix prefixes environment overrides, e.g. BACKLOG_REMOTE_OPERATIONS
	EnvPrefix = "BACKLOG"
)

// Config is the project configuration
type Config struct {
	BacklogDir             string   `yaml:"backlog_dir" mapstructure:"backlog_dir"`
	Statuses               []string `yaml:"statuses" mapstructure:"statuses"`
	RemoteOperations       bool     `yaml:"remote_operations" mapstructure:"remote_operations"`
	ActiveBranchDays       int      `yaml:"active_branch_days" mapstructure:"active_branch_days"`
	TaskResolutionStrategy string   `yaml:"task_resolution_strategy" mapstructure:"task_resolution_strategy"`
	HydrateConcurrency     int      `yaml:"hydrate_concurrency" mapstructure:"hydrate_concurrency"`
	DefaultOrdinalStep     float64  `yaml:"default_ordinal_step" mapstructure:"default_ordinal_step"`
	RedisURL               string   `yaml:"redis_url" mapstructure:"redis_url"`
	Editor                 string   `yaml:"editor" mapstructure:"editor"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		BacklogDir:             DefaultBacklogDir,
		Statuses:               []string{"To Do", "In Progress", "Done"},
		RemoteOperations:       true,
		ActiveBranchDays:       30,
		TaskResolutionStrategy: string(domain.DefaultStrategy),
		HydrateConcurrency:     8,
		DefaultOrdinalStep:     domain.DefaultOrdinalStep,
	}
}

// Load reads <root>/backlog/config.yml over the defaults and applies
// BACKLOG_* environment overrides. A missing file is not an error.
func Load(root string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("backlog_dir", def.BacklogDir)
	v.SetDefault("statuses", def.Statuses)
	v.SetDefault("remote_operations", def.RemoteOperations)
	v.SetDefault("active_branch_days", def.ActiveBranchDays)
	v.SetDefault("task_resolution_strategy", def.TaskResolutionStrategy)
	v.SetDefault("hydrate_concurrency", def.HydrateConcurrency)
	v.SetDefault("default_ordinal_step", def.DefaultOrdinalStep)
	v.SetDefault("redis_url", def.RedisURL)
	v.SetDefault("editor", def.Editor)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := FilePath(root)
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", file, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize(def)
	return cfg, nil
}

func (c *Config) normalize(def *Config) {
	if strings.TrimSpace(c.BacklogDir) == "" {
		c.BacklogDir = def.BacklogDir
	}
	if len(c.Statuses) == 0 {
		c.Statuses = def.Statuses
	}
	if c.ActiveBranchDays <= 0 {
		c.ActiveBranchDays = def.ActiveBranchDays
	}
	if c.HydrateConcurrency <= 0 {
		c.HydrateConcurrency = def.HydrateConcurrency
	}
	if c.DefaultOrdinalStep <= 0 {
		c.DefaultOrdinalStep = def.DefaultOrdinalStep
	}
	c.TaskResolutionStrategy = string(domain.ParseResolutionStrategy(c.TaskResolutionStrategy))
}

// Strategy returns the configured resolution strategy
func (c *Config) Strategy() domain.ResolutionStrategy {
	return domain.ParseResolutionStrategy(c.TaskResolutionStrategy)
}

// Ranker ranks statuses by their position in Statuses
func (c *Config) Ranker() domain.StatusRanker {
	return domain.NewStatusRanker(c.Statuses)
}

// DoneStatus is the last configured status, the one that completes a task
func (c *Config) DoneStatus() string {
	if len(c.Statuses) == 0 {
		return ""
	}
	return c.Statuses[len(c.Statuses)-1]
}

// TasksDir is the repository-relative, slash-separated tasks directory as
// git sees it
func (c *Config) TasksDir() string {
	return path.Join(filepath.ToSlash(c.BacklogDir), "tasks")
}

// FilePath returns the config file location for a project root
func FilePath(root string) string {
	return filepath.Join(root, DefaultBacklogDir, ConfigFileName)
}

// ProjectRoot returns the project root from BACKLOG_ROOT, falling back to
// the working directory.
func ProjectRoot() (string, error) {
	if env := os.Getenv("BACKLOG_ROOT"); env != "" {
		return filepath.Abs(env)
	}
	return os.Getwd()
}
