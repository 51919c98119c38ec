/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedMeasurer gives every rune an advance of ratio*size, which keeps the
// expected positions in the tests easy to compute by hand.
type fixedMeasurer struct{ ratio float64 }

func (m fixedMeasurer) Advance(text string, f Font) float64 {
	return float64(utf8.RuneCountInString(text)) * f.Size * m.ratio
}

func (m fixedMeasurer) Metrics(f Font) Metrics {
	return Metrics{Ascent: 0.8 * f.Size, Descent: 0.2 * f.Size}
}

var half = fixedMeasurer{ratio: 0.5}

type countingMeasurer struct {
	Measurer
	calls atomic.Int64
}

func (c *countingMeasurer) Advance(text string, f Font) float64 {
	c.calls.Add(1)
	return c.Measurer.Advance(text, f)
}

func TestBasicMeasurerScalesWithSize(t *testing.T) {
	m := BasicMeasurer{}
	assert.InDelta(t, 21.0, m.Advance("abc", Font{Size: 13}), 1e-9)
	assert.InDelta(t, 42.0, m.Advance("abc", Font{Size: 26}), 1e-9)
	assert.Zero(t, m.Advance("", Font{Size: 13}))
	assert.Zero(t, m.Advance("abc", Font{Size: 0}))
	assert.InDelta(t, 11.0, m.Metrics(Font{Size: 13}).Ascent, 1e-9)
}

func TestCachedMeasurer(t *testing.T) {
	inner := &countingMeasurer{Measurer: half}
	c := NewCachedMeasurer(inner)
	f := Font{Family: "Go", Size: 10}

	w1 := c.Advance("hello", f)
	w2 := c.Advance("hello", f)
	require.Equal(t, w1, w2)
	assert.EqualValues(t, 1, inner.calls.Load())

	c.Advance("hello", f.WithSize(11))
	c.Advance("hello", f.WithStyle(StyleBold))
	assert.EqualValues(t, 3, inner.calls.Load())

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 3, misses)
	assert.Equal(t, half.Metrics(f), c.Metrics(f))
}

func TestFaceMeasurerGoFonts(t *testing.T) {
	lib := NewFontLibrary()
	require.NoError(t, lib.RegisterGoFonts())
	assert.Equal(t, []string{"go"}, lib.Families())

	m := &FaceMeasurer{Lib: lib}
	regular := Font{Family: GoFamily, Size: 12}
	w := m.Advance("Hello", regular)
	require.Greater(t, w, 0.0)
	assert.Equal(t, w, m.Advance("Hello", regular))
	assert.InDelta(t, 2*w, m.Advance("Hello", regular.WithSize(24)), 0.2)

	// Unknown families resolve to the library default.
	assert.Equal(t, w, m.Advance("Hello", Font{Family: "Nope", Size: 12}))
	assert.NotEqual(t, w, m.Advance("Hello", regular.WithStyle(StyleBold)))

	met := m.Metrics(regular)
	assert.Greater(t, met.Ascent, 0.0)
	assert.Less(t, met.Ascent, 12.0)
}

func TestFaceMeasurerFallsBackWithoutFonts(t *testing.T) {
	m := &FaceMeasurer{Lib: NewFontLibrary()}
	f := Font{Family: "Arial", Size: 13}
	assert.Equal(t, BasicMeasurer{}.Advance("abc", f), m.Advance("abc", f))
	assert.Equal(t, BasicMeasurer{}.Metrics(f), m.Metrics(f))

	m = &FaceMeasurer{Lib: NewFontLibrary(), Fallback: half}
	assert.Equal(t, 19.5, m.Advance("abc", f))
}

func TestFontLibraryRejectsGarbage(t *testing.T) {
	lib := NewFontLibrary()
	require.Error(t, lib.Add("Broken", StyleNormal, []byte("not a font")))
	require.Error(t, lib.LoadTTF("Missing", "", "/does/not/exist.ttf"))
	assert.Empty(t, lib.Families())
}

func TestPDFMeasurer(t *testing.T) {
	m := NewPDFMeasurer()
	f := Font{Family: "Arial", Size: 12}
	w := m.Advance("Hello", f)
	require.Greater(t, w, 0.0)
	assert.InDelta(t, 2*w, m.Advance("Hello", f.WithSize(24)), 1e-6)
	assert.Greater(t, m.Advance("Hello", f.WithStyle(StyleBold)), w)

	// Courier is monospaced: 600 units per glyph.
	assert.InDelta(t, 5*0.6*12, m.Advance("iiiii", Font{Family: "Courier New", Size: 12}), 1e-6)
	assert.InDelta(t, 718*12/1000.0, m.Metrics(f).Ascent, 1e-9)
}

func TestShapingMeasurer(t *testing.T) {
	m, err := NewShapingMeasurer()
	require.NoError(t, err)
	f := Font{Family: GoFamily, Size: 16}
	w := m.Advance("Hello", f)
	require.Greater(t, w, 0.0)
	assert.Equal(t, w, m.Advance("Hello", f))
	assert.Greater(t, m.Advance("Hello world", f), w)
	assert.Greater(t, m.Metrics(f).Ascent, 0.0)
}

func TestNewMeasurer(t *testing.T) {
	for _, kind := range []string{MeasurerBasic, MeasurerFace, "", MeasurerPDF, " Basic "} {
		m, err := NewMeasurer(kind, nil)
		require.NoError(t, err, kind)
		require.NotNil(t, m, kind)
	}
	_, err := NewMeasurer("magic", nil)
	require.Error(t, err)
}

func TestInferFontVariant(t *testing.T) {
	cases := []struct {
		in     string
		family string
		style  Style
	}{
		{"Arial", "Arial", StyleNormal},
		{"Arial Bold", "Arial", StyleBold},
		{"Garamond Italic", "Garamond", StyleItalic},
		{"Open Sans Bold Italic", "Open Sans", StyleBoldItalic},
		{"Open Sans italic bold", "Open Sans", StyleBoldItalic},
	}
	for _, c := range cases {
		fam, st := InferFontVariant(c.in)
		assert.Equal(t, c.family, fam, c.in)
		assert.Equal(t, c.style, st, c.in)
	}
}

func TestParseStyleAndTransform(t *testing.T) {
	st, ok := ParseStyle("Bold-Italic")
	assert.True(t, ok)
	assert.Equal(t, StyleBoldItalic, st)
	_, ok = ParseStyle("heavy")
	assert.False(t, ok)

	tr, ok := ParseTransform("UPPERCASE")
	assert.True(t, ok)
	assert.Equal(t, TransformUppercase, tr)
	_, ok = ParseTransform("smallcaps")
	assert.False(t, ok)
}
