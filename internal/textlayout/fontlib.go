/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// GoFamily is the family name under which RegisterGoFonts installs the
// embedded Go fonts.
const GoFamily = "Go"

// FontLibrary stores parsed OpenType fonts mapped by family and style and
// caches sized faces. Family lookup is case-insensitive. It is safe for
// concurrent use; faces are only touched while the library lock is held
// because opentype faces keep per-face scratch buffers.
type FontLibrary struct {
	mu            sync.Mutex
	fonts         map[fontKey]*opentype.Font
	faces         map[faceKey]font.Face
	defaultFamily string
}

type fontKey struct {
	family string
	style  Style
}

type faceKey struct {
	fontKey
	size float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

// Add parses an OpenType/TrueType font and registers it under family/style.
// The first family added becomes the library default used for unknown families.
func (fl *FontLibrary) Add(family string, style Style, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s (%s): %w", family, style.Or(StyleNormal), err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
		fl.faces = make(map[faceKey]font.Face)
	}
	key := fontKey{family: normFamily(family), style: style.Or(StyleNormal)}
	fl.fonts[key] = f
	for k := range fl.faces {
		if k.fontKey == key {
			delete(fl.faces, k)
		}
	}
	if fl.defaultFamily == "" {
		fl.defaultFamily = key.family
	}
	return nil
}

// LoadTTF loads a font file into the library. An empty style is inferred
// from the family name ("Garamond Bold" registers family "Garamond", bold).
func (fl *FontLibrary) LoadTTF(family string, style Style, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if style == "" {
		family, style = InferFontVariant(family)
	}
	return fl.Add(family, style, data)
}

// RegisterGoFonts installs the four embedded Go text faces as family "Go".
func (fl *FontLibrary) RegisterGoFonts() error {
	for _, v := range []struct {
		style Style
		data  []byte
	}{
		{StyleNormal, goregular.TTF},
		{StyleBold, gobold.TTF},
		{StyleItalic, goitalic.TTF},
		{StyleBoldItalic, gobolditalic.TTF},
	} {
		if err := fl.Add(GoFamily, v.style, v.data); err != nil {
			return err
		}
	}
	return nil
}

// Families lists the registered family names (lower-cased), in no particular order.
func (fl *FontLibrary) Families() []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	return out
}

// find resolves a font: exact family+style, then the family in any style,
// then the default family in the requested style. Caller holds fl.mu.
func (fl *FontLibrary) find(spec Font) (fontKey, *opentype.Font) {
	want := fontKey{family: normFamily(spec.Family), style: spec.Style.Or(StyleNormal)}
	if f, ok := fl.fonts[want]; ok {
		return want, f
	}
	for _, st := range []Style{StyleNormal, StyleBold, StyleItalic, StyleBoldItalic} {
		k := fontKey{family: want.family, style: st}
		if f, ok := fl.fonts[k]; ok {
			return k, f
		}
	}
	if fl.defaultFamily != "" && fl.defaultFamily != want.family {
		return fl.find(Font{Family: fl.defaultFamily, Style: want.style})
	}
	return fontKey{}, nil
}

// withFace runs fn with the face resolved for spec. It reports false when
// the library holds no usable font.
func (fl *FontLibrary) withFace(spec Font, fn func(font.Face)) bool {
	if fl == nil || spec.Size <= 0 {
		return false
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	key, f := fl.find(spec)
	if f == nil {
		return false
	}
	fk := faceKey{fontKey: key, size: spec.Size}
	face, ok := fl.faces[fk]
	if !ok {
		// 72 DPI makes one point one pixel; no hinting so fractional sizes
		// produce proportional advances.
		nf, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingNone})
		if err != nil {
			return false
		}
		fl.faces[fk] = nf
		face = nf
	}
	fn(face)
	return true
}

func normFamily(family string) string { return strings.ToLower(strings.TrimSpace(family)) }

// FaceMeasurer measures with OpenType faces from a FontLibrary and falls
// back to another Measurer when the library cannot resolve the font.
type FaceMeasurer struct {
	Lib      *FontLibrary
	Fallback Measurer
}

func (m *FaceMeasurer) Advance(text string, f Font) float64 {
	if text == "" {
		return 0
	}
	var w float64
	if m.Lib.withFace(f, func(face font.Face) { w = fixedToFloat(font.MeasureString(face, text)) }) {
		return w
	}
	return m.fallback().Advance(text, f)
}

func (m *FaceMeasurer) Metrics(f Font) Metrics {
	var out Metrics
	if m.Lib.withFace(f, func(face font.Face) {
		fm := face.Metrics()
		out = Metrics{
			Ascent:  fixedToFloat(fm.Ascent),
			Descent: fixedToFloat(fm.Descent),
			LineGap: fixedToFloat(fm.Height - fm.Ascent - fm.Descent),
		}
	}) {
		return out
	}
	return m.fallback().Metrics(f)
}

func (m *FaceMeasurer) fallback() Measurer {
	if m.Fallback == nil {
		return BasicMeasurer{}
	}
	return m.Fallback
}
