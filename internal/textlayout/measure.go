/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement is isolated behind the Measurer interface so the layout
// engine stays deterministic and can run against different font engines.

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Measurer measures single runs of text. Implementations must return the same
// width for the same (text, family, size, style) every time, must be safe for
// concurrent use, and should return a best-effort width for unknown families
// instead of failing.
type Measurer interface {
	// Advance returns the rendered width of text in pixels for the given font.
	Advance(text string, f Font) float64
	// Metrics returns the vertical metrics of the font at f.Size.
	Metrics(f Font) Metrics
}

// BasicMeasurer scales the fixed 7x13 bitmap face from x/image/font/basicfont
// to the requested size. It needs no font files, which makes it the fallback
// for every other measurer and a stable choice for tests.
type BasicMeasurer struct{}

const basicFaceHeight = 13

func (BasicMeasurer) Advance(text string, f Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	return fixedToFloat(font.MeasureString(basicfont.Face7x13, text)) * f.Size / basicFaceHeight
}

func (BasicMeasurer) Metrics(f Font) Metrics {
	m := basicfont.Face7x13.Metrics()
	scale := f.Size / basicFaceHeight
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent) * scale,
		Descent: fixedToFloat(m.Descent) * scale,
		LineGap: fixedToFloat(m.Height-m.Ascent-m.Descent) * scale,
	}
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

type cacheKey struct {
	text   string
	family string
	size   float64
	style  Style
}

// CachedMeasurer memoizes Advance results of the wrapped measurer. Widths are
// keyed by (text, family, size, style), so repeated layouts of the same
// record, and the retries of the auto-shrink loop for tokens that recur
// within one text, are answered from memory.
type CachedMeasurer struct {
	next Measurer

	mu     sync.RWMutex
	widths map[cacheKey]float64
	hits   uint64
	misses uint64
}

// NewCachedMeasurer wraps next with a width cache.
func NewCachedMeasurer(next Measurer) *CachedMeasurer {
	return &CachedMeasurer{next: next, widths: make(map[cacheKey]float64)}
}

func (c *CachedMeasurer) Advance(text string, f Font) float64 {
	k := cacheKey{text: text, family: f.Family, size: f.Size, style: f.Style}
	c.mu.RLock()
	w, ok := c.widths[k]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return w
	}
	w = c.next.Advance(text, f)
	c.mu.Lock()
	c.widths[k] = w
	c.misses++
	c.mu.Unlock()
	return w
}

func (c *CachedMeasurer) Metrics(f Font) Metrics { return c.next.Metrics(f) }

// Stats returns cache hits and misses so far.
func (c *CachedMeasurer) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Measurer kinds accepted by NewMeasurer.
const (
	MeasurerBasic   = "basic"
	MeasurerFace    = "face"
	MeasurerShaping = "shaping"
	MeasurerPDF     = "pdf"
)

// NewMeasurer builds the measurer named by kind. lib is used by the face
// measurer; when nil a library holding only the embedded Go fonts is created.
func NewMeasurer(kind string, lib *FontLibrary) (Measurer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case MeasurerBasic:
		return BasicMeasurer{}, nil
	case MeasurerFace, "":
		if lib == nil {
			lib = NewFontLibrary()
			if err := lib.RegisterGoFonts(); err != nil {
				return nil, err
			}
		}
		return &FaceMeasurer{Lib: lib, Fallback: BasicMeasurer{}}, nil
	case MeasurerShaping:
		return NewShapingMeasurer()
	case MeasurerPDF:
		return NewPDFMeasurer(), nil
	}
	return nil, fmt.Errorf("textlayout: unknown measurer %q", kind)
}
