/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

// FontConfig registers an extra font file with the face measurer.
// Style may be empty, in which case it is inferred from the family name
// ("Garamond Bold Italic" -> family "Garamond", style "bold italic").
type FontConfig struct {
	Family string `yaml:"family"`
	Style  string `yaml:"style,omitempty"`
	Path   string `yaml:"path"`
}

type EngineConfig struct {
	Measurer    string       `yaml:"measurer"` // "basic" | "face" | "shaping" | "pdf"
	Shrink      string       `yaml:"shrink"`   // "linear" | "binary"
	ShrinkStep  float64      `yaml:"shrink_step"`
	MinFontSize float64      `yaml:"min_font_size"`
	Cache       bool         `yaml:"cache"`
	Fonts       []FontConfig `yaml:"fonts,omitempty"`
}

type BatchConfig struct {
	Workers   int    `yaml:"workers"`
	IndexPath string `yaml:"index_path"` // empty disables the sqlite result index
	WriteSVG  bool   `yaml:"write_svg"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Engine        EngineConfig  `yaml:"engine"`
	Batch         BatchConfig   `yaml:"batch"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Engine:        EngineConfig{Measurer: "face", Shrink: "linear", ShrinkStep: 0.1, MinFontSize: 1, Cache: true},
		Batch:         BatchConfig{Workers: runtime.NumCPU(), IndexPath: "", WriteSVG: true},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath   = "GCL_CONFIG"
	EnvMeasurer     = "GCL_MEASURER"
	EnvShrink       = "GCL_SHRINK"
	EnvShrinkStep   = "GCL_SHRINK_STEP"
	EnvMinFontSize  = "GCL_MIN_FONT_SIZE"
	EnvCache        = "GCL_CACHE"
	EnvBatchWorkers = "GCL_BATCH_WORKERS"
	EnvIndexPath    = "GCL_INDEX_PATH"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCL_LOG_LEVEL"
	EnvLogFormat = "GCL_LOG_FORMAT"
	EnvLogSource = "GCL_LOG_SOURCE"
	EnvLogFile   = "GCL_LOG_FILE"
)

// ConfigPath returns the per-user config file path, or the value of GCL_CONFIG when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCardLayout")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCardLayout")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocardlayout")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file is not an error;
// a file that exists but does not parse is.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes the config YAML to path, creating parent directories.
func Save(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports settings the engine cannot work with.
func (c AppConfig) Validate() error {
	var errs []error
	switch c.Engine.Measurer {
	case "basic", "face", "shaping", "pdf":
	default:
		errs = append(errs, fmt.Errorf("engine.measurer: unknown measurer %q", c.Engine.Measurer))
	}
	switch c.Engine.Shrink {
	case "linear", "binary":
	default:
		errs = append(errs, fmt.Errorf("engine.shrink: unknown strategy %q", c.Engine.Shrink))
	}
	if c.Engine.ShrinkStep <= 0 {
		errs = append(errs, fmt.Errorf("engine.shrink_step must be positive, got %v", c.Engine.ShrinkStep))
	}
	if c.Engine.MinFontSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.min_font_size must be positive, got %v", c.Engine.MinFontSize))
	}
	for i, f := range c.Engine.Fonts {
		if strings.TrimSpace(f.Path) == "" {
			errs = append(errs, fmt.Errorf("engine.fonts[%d]: path is required", i))
		}
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers))
	}
	return errors.Join(errs...)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.ToLower(strings.TrimSpace(src.Engine.Measurer)); v != "" {
		dst.Engine.Measurer = v
	}
	if v := strings.ToLower(strings.TrimSpace(src.Engine.Shrink)); v != "" {
		dst.Engine.Shrink = v
	}
	if src.Engine.ShrinkStep != 0 {
		dst.Engine.ShrinkStep = src.Engine.ShrinkStep
	}
	if src.Engine.MinFontSize != 0 {
		dst.Engine.MinFontSize = src.Engine.MinFontSize
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Engine.Cache = src.Engine.Cache
	if len(src.Engine.Fonts) > 0 {
		dst.Engine.Fonts = append([]FontConfig(nil), src.Engine.Fonts...)
	}
	if src.Batch.Workers != 0 {
		dst.Batch.Workers = src.Batch.Workers
	}
	if v := strings.TrimSpace(src.Batch.IndexPath); v != "" {
		dst.Batch.IndexPath = v
	}
	dst.Batch.WriteSVG = src.Batch.WriteSVG
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvMeasurer)); v != "" {
		cfg.Engine.Measurer = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvShrink)); v != "" {
		cfg.Engine.Shrink = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvShrinkStep)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.ShrinkStep = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvMinFontSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.MinFontSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCache)); v != "" {
		cfg.Engine.Cache = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBatchWorkers)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Batch.IndexPath = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "engine.measurer":
		env = EnvMeasurer
	case "engine.shrink":
		env = EnvShrink
	case "engine.shrink_step":
		env = EnvShrinkStep
	case "engine.min_font_size":
		env = EnvMinFontSize
	case "engine.cache":
		env = EnvCache
	case "batch.workers":
		env = EnvBatchWorkers
	case "batch.index_path":
		env = EnvIndexPath
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
