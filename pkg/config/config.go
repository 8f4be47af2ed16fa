package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	xdgAppName = "nudge"
	configName = "config"
	envPrefix  = "NUDGE"
)

// Config is read from ~/.config/nudge/config.yaml, then overridden by
// NUDGE_* environment variables (NUDGE_NTFY_TOPIC for ntfy.topic).
type Config struct {
	TasksPath       string         `mapstructure:"tasks_path" validate:"required"`
	IconPath        string         `mapstructure:"icon_path"`
	Message         string         `mapstructure:"message" validate:"required"`
	DefaultPriority string         `mapstructure:"default_priority" validate:"oneof=Low Medium High"`
	Notifier        string         `mapstructure:"notifier" validate:"oneof=desktop ntfy log"`
	Log             LogConfig      `mapstructure:"log"`
	Ntfy            NtfyConfig     `mapstructure:"ntfy"`
	Calendar        CalendarConfig `mapstructure:"calendar"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type NtfyConfig struct {
	ServerURL string `mapstructure:"server_url" validate:"required,url"`
	Topic     string `mapstructure:"topic"`
}

// CalendarConfig controls mirroring tasks into a Google Calendar.
type CalendarConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Name    string `mapstructure:"name"`
}

// Dir is where the config file, OAuth credentials and mirror index live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// Load reads the config file at path, or the default location when path is
// empty. Only an explicit path has to exist.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not find home directory: %w", err)
	}

	// A .env next to the working directory may carry NUDGE_* overrides.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("tasks_path", filepath.Join(home, "todo", "tasks.json"))
	v.SetDefault("icon_path", filepath.Join(home, "todo", "icon.png"))
	v.SetDefault("message", "Time's up")
	v.SetDefault("default_priority", "Medium")
	v.SetDefault("notifier", "desktop")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
	v.SetDefault("ntfy.topic", "")
	v.SetDefault("calendar.enabled", false)
	v.SetDefault("calendar.name", "Tasks")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.TasksPath = expandHome(cfg.TasksPath, home)
	cfg.IconPath = expandHome(cfg.IconPath, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Notifier == "ntfy" && c.Ntfy.Topic == "" {
		return errors.New("invalid config: ntfy.topic is required when notifier is ntfy")
	}
	if c.Calendar.Enabled && c.Calendar.Name == "" {
		return errors.New("invalid config: calendar.name is required when calendar.enabled is set")
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
