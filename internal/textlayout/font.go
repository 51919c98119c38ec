/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"regexp"
	"strings"
)

// Style is the font style of a run. The empty Style means "inherit" when it
// appears in pattern formatting.
type Style string

const (
	StyleNormal     Style = "normal"
	StyleBold       Style = "bold"
	StyleItalic     Style = "italic"
	StyleBoldItalic Style = "bold italic"
)

// ParseStyle normalises user input such as "Bold-Italic" or "italic bold".
// Unknown values yield "" and false.
func ParseStyle(s string) (Style, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	switch strings.Join(strings.Fields(s), " ") {
	case "":
		return "", true
	case "normal", "regular":
		return StyleNormal, true
	case "bold":
		return StyleBold, true
	case "italic", "oblique":
		return StyleItalic, true
	case "bold italic", "italic bold", "bolditalic":
		return StyleBoldItalic, true
	}
	return "", false
}

// Bold reports whether the style carries a bold weight.
func (s Style) Bold() bool { return s == StyleBold || s == StyleBoldItalic }

// Italic reports whether the style is slanted.
func (s Style) Italic() bool { return s == StyleItalic || s == StyleBoldItalic }

// Or returns s unless it is empty.
func (s Style) Or(def Style) Style {
	if s == "" {
		return def
	}
	return s
}

// Transform is a case transform applied before tokenization.
type Transform string

const (
	TransformNone       Transform = "none"
	TransformCapitalize Transform = "capitalize"
	TransformLowercase  Transform = "lowercase"
	TransformUppercase  Transform = "uppercase"
)

// ParseTransform accepts the four transform names (and "" for inherit).
func ParseTransform(s string) (Transform, bool) {
	switch t := Transform(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TransformNone, TransformCapitalize, TransformLowercase, TransformUppercase:
		return t, true
	}
	return "", false
}

// Or returns t unless it is empty.
func (t Transform) Or(def Transform) Transform {
	if t == "" {
		return def
	}
	return t
}

// Font describes the base font of a text box. Size is in pixels and is the
// only field the auto-shrink driver changes; every attempt works on a copy.
type Font struct {
	Family    string
	Size      float64
	Style     Style
	Transform Transform
}

// WithSize returns a copy of f at the given size.
func (f Font) WithSize(size float64) Font {
	f.Size = size
	return f
}

// WithStyle returns a copy of f with the given style, keeping f.Style when style is empty.
func (f Font) WithStyle(style Style) Font {
	f.Style = style.Or(f.Style)
	return f
}

// Metrics are vertical font metrics in pixels for a resolved face and size.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

var (
	boldItalicSuffix = regexp.MustCompile(`(?i)(?:italic\s+bold|bold\s+italic)\s*$`)
	italicSuffix     = regexp.MustCompile(`(?i)italic\s*$`)
	boldSuffix       = regexp.MustCompile(`(?i)bold\s*$`)
)

// InferFontVariant splits a display name like "Garamond Bold Italic" into the
// family and the style its suffix names.
func InferFontVariant(name string) (family string, style Style) {
	switch {
	case boldItalicSuffix.MatchString(name):
		return strings.TrimSpace(boldItalicSuffix.ReplaceAllString(name, "")), StyleBoldItalic
	case italicSuffix.MatchString(name):
		return strings.TrimSpace(italicSuffix.ReplaceAllString(name, "")), StyleItalic
	case boldSuffix.MatchString(name):
		return strings.TrimSpace(boldSuffix.ReplaceAllString(name, "")), StyleBold
	}
	return strings.TrimSpace(name), StyleNormal
}
