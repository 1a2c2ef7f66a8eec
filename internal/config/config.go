package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/rescale/dualpane/internal/logging"
	"github.com/rescale/dualpane/internal/progress"
)

// Environment variables that override file settings.
const (
	EnvProgress   = "DUALPANE_PROGRESS"
	EnvShowHidden = "DUALPANE_SHOW_HIDDEN"
	EnvLogLevel   = "DUALPANE_LOG_LEVEL"
)

// Defaults and limits.
const (
	DefaultSpaceSafetyMargin = 1.1
	MinSpaceSafetyMargin     = 1.0
	MaxSpaceSafetyMargin     = 2.0

	DefaultBufferSizeKB = 256
	MinBufferSizeKB     = 4
	MaxBufferSizeKB     = 16384
)

// Config is the effective configuration.
type Config struct {
	Transfer TransferConfig
	Panes    PanesConfig
	Log      LogConfig

	// Source is the file the settings were read from, or "" for defaults.
	Source string
}

// TransferConfig maps the [transfer] section.
type TransferConfig struct {
	// CheckSpace enables the free-space preflight before copies.
	CheckSpace bool `ini:"check_space"`

	// SpaceSafetyMargin multiplies the bytes a copy needs (1.0 - 2.0).
	SpaceSafetyMargin float64 `ini:"space_safety_margin"`

	// BufferSizeKB is the per-file copy buffer (4 - 16384 KB).
	BufferSizeKB int `ini:"buffer_size_kb"`

	// Progress is auto, bar, items or none.
	Progress string `ini:"progress"`
}

// PanesConfig maps the [panes] section.
type PanesConfig struct {
	ShowHidden bool   `ini:"show_hidden"`
	Left       string `ini:"left"`
	Right      string `ini:"right"`
}

// LogConfig maps the [log] section.
type LogConfig struct {
	Level string `ini:"level"`
}

var (
	ErrInvalidSafetyMargin = fmt.Errorf("space_safety_margin must be between %.1f and %.1f", MinSpaceSafetyMargin, MaxSpaceSafetyMargin)
	ErrInvalidBufferSize   = fmt.Errorf("buffer_size_kb must be between %d and %d", MinBufferSizeKB, MaxBufferSizeKB)
)

// New returns the default configuration.
func New() *Config {
	return &Config{
		Transfer: TransferConfig{
			CheckSpace:        true,
			SpaceSafetyMargin: DefaultSpaceSafetyMargin,
			BufferSizeKB:      DefaultBufferSizeKB,
			Progress:          string(progress.KindAuto),
		},
		Panes: PanesConfig{
			Left:  "~",
			Right: "~",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, or from DefaultConfigPath when path is
// empty, then applies environment overrides and validates the result.
// A missing default file yields the defaults; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	cfg := New()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			if err := cfg.loadFile(path); err != nil {
				return nil, err
			}
		case explicit || !errors.Is(statErr, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config %s: %w", path, statErr)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	iniFile, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	transferSection := iniFile.Section("transfer")
	cfg.Transfer.CheckSpace = transferSection.Key("check_space").MustBool(cfg.Transfer.CheckSpace)
	cfg.Transfer.SpaceSafetyMargin = transferSection.Key("space_safety_margin").MustFloat64(cfg.Transfer.SpaceSafetyMargin)
	cfg.Transfer.BufferSizeKB = transferSection.Key("buffer_size_kb").MustInt(cfg.Transfer.BufferSizeKB)
	cfg.Transfer.Progress = transferSection.Key("progress").MustString(cfg.Transfer.Progress)

	panesSection := iniFile.Section("panes")
	cfg.Panes.ShowHidden = panesSection.Key("show_hidden").MustBool(cfg.Panes.ShowHidden)
	cfg.Panes.Left = panesSection.Key("left").MustString(cfg.Panes.Left)
	cfg.Panes.Right = panesSection.Key("right").MustString(cfg.Panes.Right)

	cfg.Log.Level = iniFile.Section("log").Key("level").MustString(cfg.Log.Level)

	cfg.Source = path
	return nil
}

func (cfg *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvProgress); ok && v != "" {
		cfg.Transfer.Progress = v
	}
	if v, ok := os.LookupEnv(EnvShowHidden); ok && v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvShowHidden, err)
		}
		cfg.Panes.ShowHidden = show
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks ranges and enumerated values.
func (cfg *Config) Validate() error {
	var errs []error
	if m := cfg.Transfer.SpaceSafetyMargin; m < MinSpaceSafetyMargin || m > MaxSpaceSafetyMargin {
		errs = append(errs, ErrInvalidSafetyMargin)
	}
	if b := cfg.Transfer.BufferSizeKB; b < MinBufferSizeKB || b > MaxBufferSizeKB {
		errs = append(errs, ErrInvalidBufferSize)
	}
	if _, err := progress.ParseKind(cfg.Transfer.Progress); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BufferSize returns the copy buffer size in bytes.
func (cfg *Config) BufferSize() int {
	return cfg.Transfer.BufferSizeKB * 1024
}

// ProgressKind returns the validated progress mode.
func (cfg *Config) ProgressKind() progress.Kind {
	k, err := progress.ParseKind(cfg.Transfer.Progress)
	if err != nil {
		return progress.KindAuto
	}
	return k
}

// WriteTo renders the effective configuration in file syntax.
func (cfg *Config) WriteTo(w io.Writer) (int64, error) {
	iniFile := ini.Empty()
	if err := iniFile.ReflectFrom(&struct {
		Transfer TransferConfig `ini:"transfer"`
		Panes    PanesConfig    `ini:"panes"`
		Log      LogConfig      `ini:"log"`
	}{cfg.Transfer, cfg.Panes, cfg.Log}); err != nil {
		return 0, fmt.Errorf("failed to render config: %w", err)
	}
	return iniFile.WriteTo(w)
}

// String returns the effective configuration in file syntax.
func (cfg *Config) String() string {
	var sb strings.Builder
	_, _ = cfg.WriteTo(&sb)
	return sb.String()
}
