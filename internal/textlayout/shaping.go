/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// ShapingMeasurer measures shaped runs (kerning, ligatures) with the
// HarfBuzz port from go-text/typesetting. Fonts come from a fontscan map
// seeded with the embedded Go fonts; unknown families resolve to Go.
type ShapingMeasurer struct {
	mu      sync.Mutex
	fontMap *fontscan.FontMap
	shaper  shaping.HarfbuzzShaper
}

// NewShapingMeasurer creates a measurer with the Go fonts registered.
func NewShapingMeasurer() (*ShapingMeasurer, error) {
	fm := fontscan.NewFontMap(nil)
	for _, f := range []struct {
		data []byte
		id   string
	}{
		{goregular.TTF, "goregular"},
		{gobold.TTF, "gobold"},
		{goitalic.TTF, "goitalic"},
		{gobolditalic.TTF, "gobolditalic"},
	} {
		if err := fm.AddFont(bytes.NewReader(f.data), f.id, GoFamily); err != nil {
			return nil, fmt.Errorf("textlayout: loading %s: %w", f.id, err)
		}
	}
	return &ShapingMeasurer{fontMap: fm}, nil
}

// AddFont registers additional font data under family.
func (m *ShapingMeasurer) AddFont(family, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fontMap.AddFont(bytes.NewReader(data), id, family); err != nil {
		return fmt.Errorf("textlayout: loading %s: %w", id, err)
	}
	return nil
}

func (m *ShapingMeasurer) Advance(text string, f Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var total fixed.Int26_6
	for _, out := range m.shape(text, f) {
		total += out.Advance
	}
	return fixedToFloat(total)
}

func (m *ShapingMeasurer) Metrics(f Font) Metrics {
	if f.Size <= 0 {
		return Metrics{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	outs := m.shape("x", f)
	if len(outs) == 0 {
		return BasicMeasurer{}.Metrics(f)
	}
	b := outs[0].LineBounds
	asc := fixedToFloat(b.Ascent)
	desc := -fixedToFloat(b.Descent)
	return Metrics{Ascent: asc, Descent: desc, LineGap: fixedToFloat(b.Gap)}
}

// shape splits text by resolved face and shapes each part. Caller holds m.mu.
func (m *ShapingMeasurer) shape(text string, f Font) []shaping.Output {
	aspect := gtfont.Aspect{Style: gtfont.StyleNormal, Weight: gtfont.WeightNormal}
	if f.Style.Italic() {
		aspect.Style = gtfont.StyleItalic
	}
	if f.Style.Bold() {
		aspect.Weight = gtfont.WeightBold
	}
	m.fontMap.SetQuery(fontscan.Query{
		Families: []string{f.Family, GoFamily, fontscan.SansSerif},
		Aspect:   aspect,
	})
	m.fontMap.SetScript(language.Latin)

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Size:      fixed.Int26_6(f.Size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}
	var outs []shaping.Output
	for _, split := range shaping.SplitByFace(input, m.fontMap) {
		if split.Face == nil {
			continue
		}
		outs = append(outs, m.shaper.Shape(split))
	}
	return outs
}
