/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gocardlayout/internal/batch"
	"gocardlayout/internal/domain"
	"gocardlayout/internal/textlayout"
)

// CardSVG draws a preview of one card: the layout's boxes, and the laid out
// text of card at its chunk positions. Text runs are placed on the baseline
// (chunk top plus font ascent); symbol chunks become square images
// referencing "<symbolPath>/<text>.svg". Fonts are not embedded, the family is
// a hint only.
func CardSVG(layout domain.Layout, card batch.Card) ([]byte, error) {
	boxes := make(map[string]batch.Box, len(card.Boxes))
	for _, b := range card.Boxes {
		boxes[b.ItemID] = b
	}

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	w, h := layout.Size.W, layout.Size.H
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", w, h, w, h)
	wf("  <defs>\n")
	wf("    <filter id=\"symbol-shadow\"><feDropShadow dx=\"1\" dy=\"1\" stdDeviation=\"0.5\" flood-opacity=\"0.6\"/></filter>\n")
	for _, it := range layout.TextItems() {
		wf("    <clipPath id=\"clip-%s\"><rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"/></clipPath>\n",
			escAttr(it.ID), it.X0, it.Y0, it.X1-it.X0, it.Y1-it.Y0)
	}
	wf("  </defs>\n")
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", w, h)

	for _, it := range layout.Items.Ordered() {
		if !it.Visible {
			continue
		}
		switch it.Type {
		case domain.ItemLine:
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				it.X0, it.Y0, it.X1, it.Y1, svgColor(it.Border.Color, "#000000"), max(it.Border.Width, 1))
			continue
		default:
			writeBox(wf, it)
		}
		switch it.Type {
		case domain.ItemImage:
			if it.Source != "" {
				wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" href=\"%s\" preserveAspectRatio=\"xMidYMid slice\"/>\n",
					it.X0, it.Y0, it.X1-it.X0, it.Y1-it.Y0, escAttr(it.Source))
			}
		case domain.ItemText:
			if b, ok := boxes[it.ID]; ok {
				writeText(wf, it, b.Result)
			}
		}
	}
	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func writeBox(wf func(string, ...any), it domain.Item) {
	r := it.Border.Radius
	radius := max(r.TL, r.TR, r.BL, r.BR)
	stroke := "none"
	if it.Border.Width > 0 {
		stroke = svgColor(it.Border.Color, "#000000")
	}
	wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
		it.X0, it.Y0, it.X1-it.X0, it.Y1-it.Y0, radius, svgColor(it.BackgroundColor, "none"), stroke, it.Border.Width)
}

func writeText(wf func(string, ...any), it domain.Item, res textlayout.Result) {
	ox, oy := it.X0+it.PL, it.Y0+it.PT
	family := it.FontFamily
	if family == "" {
		family = "Helvetica, Arial, sans-serif"
	}
	wf("  <g clip-path=\"url(#clip-%s)\" font-family=\"%s\" font-size=\"%g\">\n", escAttr(it.ID), escAttr(family), res.FontSize)
	for _, c := range res.Chunks {
		switch c.Kind {
		case textlayout.ChunkSymbol:
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			filter := ""
			if c.Symbol != nil && c.Symbol.Shadow {
				filter = " filter=\"url(#symbol-shadow)\""
			}
			wf("    <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" href=\"%s\"%s/>\n",
				ox+c.X, oy+c.Y, c.W, res.FontSize, escAttr(c.SymbolFile()), filter)
		case textlayout.ChunkWord:
			color := c.Color
			if color == "" {
				color = it.TextColor
			}
			wf("    <text x=\"%g\" y=\"%g\"%s fill=\"%s\">%s</text>\n",
				ox+c.X, oy+c.Y+res.Ascent, styleAttrs(c.Style), svgColor(color, "#000000"), escText(c.Text))
		}
	}
	wf("  </g>\n")
}

func styleAttrs(s textlayout.Style) string {
	out := ""
	if s.Bold() {
		out += " font-weight=\"bold\""
	}
	if s.Italic() {
		out += " font-style=\"italic\""
	}
	return out
}

var cssColor = regexp.MustCompile(`^(#[0-9A-Fa-f]{3,8}|rgba?\([0-9., %]+\)|[A-Za-z]+)$`)

// svgColor passes CSS colors through and replaces anything else with def.
func svgColor(c, def string) string {
	if c == "" || !cssColor.MatchString(c) {
		return def
	}
	return c
}

// WriteCardSVGs writes one SVG per card into dir, named card-<index>.svg.
func WriteCardSVGs(dir string, layout domain.Layout, cards []batch.Card) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	paths := make([]string, 0, len(cards))
	for _, c := range cards {
		data, err := CardSVG(layout, c)
		if err != nil {
			return paths, err
		}
		name := filepath.Join(dir, "card-"+strconv.Itoa(c.Index)+".svg")
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return paths, fmt.Errorf("write svg: %w", err)
		}
		paths = append(paths, name)
	}
	return paths, nil
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
