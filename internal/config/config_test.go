/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	def := Defaults()
	if cfg.Engine.Measurer != def.Engine.Measurer || cfg.Engine.ShrinkStep != 0.1 || cfg.Engine.MinFontSize != 1 {
		t.Fatalf("defaults not applied: %#v", cfg.Engine)
	}
}

func TestLoadFileMergesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `config_version: 1
engine:
  measurer: PDF
  shrink: binary
  shrink_step: 0.5
  cache: false
  fonts:
    - family: Garamond Bold
      path: /fonts/garamond-bold.ttf
batch:
  workers: 3
  index_path: out/index.sqlite
logging:
  level: DEBUG
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Engine.Measurer != "pdf" || cfg.Engine.Shrink != "binary" || cfg.Engine.ShrinkStep != 0.5 {
		t.Fatalf("engine not merged: %#v", cfg.Engine)
	}
	if cfg.Engine.MinFontSize != 1 {
		t.Fatalf("unset min_font_size should keep default, got %v", cfg.Engine.MinFontSize)
	}
	if cfg.Engine.Cache {
		t.Fatalf("cache=false from file should win")
	}
	if len(cfg.Engine.Fonts) != 1 || cfg.Engine.Fonts[0].Path != "/fonts/garamond-bold.ttf" {
		t.Fatalf("fonts not merged: %#v", cfg.Engine.Fonts)
	}
	if cfg.Batch.Workers != 3 || cfg.Batch.IndexPath != "out/index.sqlite" {
		t.Fatalf("batch not merged: %#v", cfg.Batch)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFileRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.Measurer = "canvas"
	cfg.Engine.ShrinkStep = 0
	cfg.Batch.Workers = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"engine.measurer", "engine.shrink_step", "batch.workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestEnvOverridesEngine(t *testing.T) {
	t.Setenv(EnvMeasurer, "Basic")
	t.Setenv(EnvShrink, "binary")
	t.Setenv(EnvMinFontSize, "2.5")
	t.Setenv(EnvCache, "off")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Engine.Measurer != "basic" || cfg.Engine.Shrink != "binary" || cfg.Engine.MinFontSize != 2.5 || cfg.Engine.Cache {
		t.Fatalf("env overrides not applied: %#v", cfg.Engine)
	}
	if env, ok := EnvOverrideFor("engine.measurer"); !ok || env != EnvMeasurer {
		t.Fatalf("EnvOverrideFor(engine.measurer) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("batch.index_path"); ok {
		t.Fatalf("batch.index_path is not overridden")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gcl.log")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gcl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestConfigPathHonoursEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	p, err := ConfigPath()
	if err != nil || p != "/tmp/custom.yaml" {
		t.Fatalf("ConfigPath() = %q, %v", p, err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Engine.Measurer = "shaping"
	cfg.Batch.Workers = 2
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got.Engine.Measurer != "shaping" || got.Batch.Workers != 2 {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}
