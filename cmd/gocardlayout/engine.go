/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocardlayout/internal/config"
	applog "gocardlayout/internal/log"
	"gocardlayout/internal/textlayout"
)

// buildEngine wires the configured measurer, extra fonts and shrink
// settings into an engine.
func buildEngine(ec config.EngineConfig) (*textlayout.Engine, error) {
	l := applog.WithComponent("cli")
	lib := textlayout.NewFontLibrary()
	if err := lib.RegisterGoFonts(); err != nil {
		return nil, err
	}
	m, err := textlayout.NewMeasurer(ec.Measurer, lib)
	if err != nil {
		return nil, err
	}
	fonts := ec.Fonts
	if len(fonts) > 0 && !loadsFontFiles(ec.Measurer) {
		l.Warn("configured fonts are ignored by this measurer",
			slog.String("measurer", ec.Measurer), slog.Int("fonts", len(fonts)))
		fonts = nil
	}
	shaper, _ := m.(*textlayout.ShapingMeasurer)
	for _, fc := range fonts {
		family, style := fontVariant(fc)
		switch {
		case shaper != nil:
			data, err := os.ReadFile(fc.Path)
			if err != nil {
				return nil, fmt.Errorf("read font %s: %w", fc.Path, err)
			}
			if err := shaper.AddFont(family, filepath.Base(fc.Path), data); err != nil {
				return nil, err
			}
		default:
			if err := lib.LoadTTF(family, style, fc.Path); err != nil {
				return nil, err
			}
		}
		l.Debug("font registered", slog.String("family", family), slog.String("style", string(style)), slog.String("path", fc.Path))
	}
	if ec.Cache {
		m = textlayout.NewCachedMeasurer(m)
	}
	return textlayout.NewEngine(m,
		textlayout.WithStrategy(ec.Shrink),
		textlayout.WithStep(ec.ShrinkStep),
		textlayout.WithMinSize(ec.MinFontSize),
	), nil
}

// loadsFontFiles reports whether the named measurer measures with font files;
// the basic and PDF measurers use built-in metrics only.
func loadsFontFiles(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case textlayout.MeasurerBasic, textlayout.MeasurerPDF:
		return false
	}
	return true
}

// fontVariant resolves the family and style of a configured font. Without an
// explicit style the family name is split ("Garamond Bold" -> Garamond, bold).
func fontVariant(fc config.FontConfig) (string, textlayout.Style) {
	if strings.TrimSpace(fc.Style) == "" {
		family := fc.Family
		if strings.TrimSpace(family) == "" {
			family = strings.TrimSuffix(filepath.Base(fc.Path), filepath.Ext(fc.Path))
		}
		return textlayout.InferFontVariant(family)
	}
	style, ok := textlayout.ParseStyle(fc.Style)
	if !ok {
		style = textlayout.StyleNormal
	}
	return strings.TrimSpace(fc.Family), style
}
