// Package config provides Viper-based configuration loading for spritegen.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PathsConfig holds the filesystem and Godot resource locations.
type PathsConfig struct {
	// BaseDir is the on-disk root that holds one folder per creature.
	BaseDir string `mapstructure:"base_dir"`
	// ResPrefix is the Godot res:// path of BaseDir.
	ResPrefix string `mapstructure:"res_prefix"`
	// OutputDir receives one .tres file per creature.
	OutputDir string `mapstructure:"output_dir"`
	// OutputResPrefix is the Godot res:// path of OutputDir.
	OutputResPrefix string `mapstructure:"output_res_prefix"`
	// RosterFile is an optional YAML roster; empty selects the built-in table.
	RosterFile string `mapstructure:"roster_file"`
	// EnumsFile is an optional GDScript output path; empty disables it.
	EnumsFile string `mapstructure:"enums_file"`
	// PreviewDir receives contact sheets from the preview command.
	PreviewDir string `mapstructure:"preview_dir"`
}

// AnimationConfig holds the defaults applied to every generated clip.
type AnimationConfig struct {
	Speed         float64  `mapstructure:"speed"`
	FrameDuration float64  `mapstructure:"frame_duration"`
	Loop          bool     `mapstructure:"loop"`
	IdleName      string   `mapstructure:"idle_name"`
	WalkPrefix    string   `mapstructure:"walk_prefix"`
	Directions    []string `mapstructure:"directions"`
}

// WalkName returns the clip name for a walk direction, e.g. "walk-left".
func (a AnimationConfig) WalkName(direction string) string {
	return a.WalkPrefix + "-" + direction
}

// FramesConfig holds the filename conventions used to partition frames.
type FramesConfig struct {
	StandPrefix    string   `mapstructure:"stand_prefix"`
	MovePrefix     string   `mapstructure:"move_prefix"`
	FallbackPrefix string   `mapstructure:"fallback_prefix"`
	IgnoreSuffixes []string `mapstructure:"ignore_suffixes"`
}

// GenerateConfig holds generation run settings.
type GenerateConfig struct {
	// Workers bounds how many creatures are rendered concurrently.
	Workers int `mapstructure:"workers"`
	// DryRun renders and validates without writing any file.
	DryRun bool `mapstructure:"dry_run"`
	// EnumName is the GDScript enum identifier in the enums file.
	EnumName string `mapstructure:"enum_name"`
}

// PreviewConfig holds contact sheet settings.
type PreviewConfig struct {
	CellHeight int `mapstructure:"cell_height"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// Debounce is how long the tree must stay quiet before regenerating.
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Animation AnimationConfig `mapstructure:"animation"`
	Frames    FramesConfig    `mapstructure:"frames"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validatePaths(c.Paths); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAnimation(c.Animation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateFrames(c.Frames); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGenerate(c.Generate); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Preview.CellHeight < 8 || c.Preview.CellHeight > 1024 {
		errs = append(errs, fmt.Sprintf("preview.cell_height must be 8-1024, got %d", c.Preview.CellHeight))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce must not be negative")
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePaths(p PathsConfig) error {
	var errs []string
	if p.BaseDir == "" {
		errs = append(errs, "paths.base_dir must not be empty")
	}
	if !strings.HasPrefix(p.ResPrefix, "res://") {
		errs = append(errs, fmt.Sprintf("paths.res_prefix must start with res://, got %q", p.ResPrefix))
	}
	if p.OutputDir == "" {
		errs = append(errs, "paths.output_dir must not be empty")
	}
	if !strings.HasPrefix(p.OutputResPrefix, "res://") {
		errs = append(errs, fmt.Sprintf("paths.output_res_prefix must start with res://, got %q", p.OutputResPrefix))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var clipNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validateAnimation(a AnimationConfig) error {
	var errs []string
	if a.Speed <= 0 {
		errs = append(errs, fmt.Sprintf("animation.speed must be > 0, got %g", a.Speed))
	}
	if a.FrameDuration <= 0 {
		errs = append(errs, fmt.Sprintf("animation.frame_duration must be > 0, got %g", a.FrameDuration))
	}
	if !clipNamePattern.MatchString(a.IdleName) {
		errs = append(errs, fmt.Sprintf("animation.idle_name %q is not a valid clip name", a.IdleName))
	}
	if !clipNamePattern.MatchString(a.WalkPrefix) {
		errs = append(errs, fmt.Sprintf("animation.walk_prefix %q is not a valid clip name", a.WalkPrefix))
	}
	if len(a.Directions) == 0 {
		errs = append(errs, "animation.directions must not be empty")
	}
	seen := make(map[string]bool, len(a.Directions))
	for _, d := range a.Directions {
		if !clipNamePattern.MatchString(d) {
			errs = append(errs, fmt.Sprintf("animation.directions entry %q is not a valid clip name", d))
			continue
		}
		if seen[d] {
			errs = append(errs, fmt.Sprintf("animation.directions entry %q is duplicated", d))
		}
		seen[d] = true
		if a.WalkName(d) == a.IdleName {
			errs = append(errs, fmt.Sprintf("animation.directions entry %q collides with animation.idle_name", d))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateFrames(f FramesConfig) error {
	var errs []string
	if f.StandPrefix == "" {
		errs = append(errs, "frames.stand_prefix must not be empty")
	}
	if f.MovePrefix == "" {
		errs = append(errs, "frames.move_prefix must not be empty")
	}
	if f.FallbackPrefix == "" {
		errs = append(errs, "frames.fallback_prefix must not be empty")
	}
	named := []struct{ key, prefix string }{
		{"frames.stand_prefix", f.StandPrefix},
		{"frames.move_prefix", f.MovePrefix},
		{"frames.fallback_prefix", f.FallbackPrefix},
	}
	// A file name must never match two prefixes.
	for i := 0; i < len(named); i++ {
		for j := i + 1; j < len(named); j++ {
			a, b := named[i], named[j]
			if a.prefix == "" || b.prefix == "" {
				continue
			}
			if strings.HasPrefix(a.prefix, b.prefix) || strings.HasPrefix(b.prefix, a.prefix) {
				errs = append(errs, fmt.Sprintf("%s %q overlaps %s %q", a.key, a.prefix, b.key, b.prefix))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGenerate(g GenerateConfig) error {
	var errs []string
	if g.Workers < 1 || g.Workers > 64 {
		errs = append(errs, fmt.Sprintf("generate.workers must be 1-64, got %d", g.Workers))
	}
	if !enumNamePattern.MatchString(g.EnumName) {
		errs = append(errs, fmt.Sprintf("generate.enum_name %q is not a valid GDScript identifier", g.EnumName))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var enumNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// New returns a Viper instance with defaults and SPRITEGEN_ environment
// overrides applied. Callers may bind flags before calling LoadFromViper.
//
// Postcondition: Returns a non-nil Viper.
func New() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with SPRITEGEN_ prefix
	v.SetEnvPrefix("SPRITEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return LoadFromViper(v)
}

// ReadFile merges the YAML file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.base_dir", "assets/sprites/creatures")
	v.SetDefault("paths.res_prefix", "res://assets/sprites/creatures")
	v.SetDefault("paths.output_dir", "assets/sprites/creatures")
	v.SetDefault("paths.output_res_prefix", "res://assets/sprites/creatures")
	v.SetDefault("paths.roster_file", "")
	v.SetDefault("paths.enums_file", "")
	v.SetDefault("paths.preview_dir", "previews")

	v.SetDefault("animation.speed", 8.0)
	v.SetDefault("animation.frame_duration", 1.0)
	v.SetDefault("animation.loop", true)
	v.SetDefault("animation.idle_name", "idle")
	v.SetDefault("animation.walk_prefix", "walk")
	v.SetDefault("animation.directions", []string{"down", "left", "right", "up"})

	v.SetDefault("frames.stand_prefix", "stand_")
	v.SetDefault("frames.move_prefix", "move_")
	v.SetDefault("frames.fallback_prefix", "chase_")
	v.SetDefault("frames.ignore_suffixes", []string{".import"})

	v.SetDefault("generate.workers", 4)
	v.SetDefault("generate.dry_run", false)
	v.SetDefault("generate.enum_name", "Creature")

	v.SetDefault("preview.cell_height", 64)

	v.SetDefault("watch.debounce", "500ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
