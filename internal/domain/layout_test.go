/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"gocardlayout/internal/textlayout"
)

const sampleLayout = `{
  "id": "card-1",
  "name": "Spell",
  "size": {"w": 320, "h": 447},
  "items": {
    "ids": ["bg", "title", "rules", "ghost"],
    "byId": {
      "bg": {"_type": "rectangle", "id": "bg", "x1": 320, "y1": 447, "backgroundColor": "#eeeeee"},
      "title": {"_type": "text", "id": "title", "x0": 20, "y0": 20, "x1": 300, "y1": 60, "text": "<name>", "fontWeight": "bold"},
      "rules": {
        "_type": "text", "id": "rules", "x0": 20, "y0": 250, "x1": 300, "y1": 420,
        "pl": 10, "pr": 10, "pt": 5, "pb": 5,
        "alignH": "center", "alignV": "top", "sectionGap": 12,
        "text": "Deal {R} damage.",
        "patterns": [
          {"delimiter": {"open": "{", "close": "}"}, "type": "symbol", "symbolPath": "symbols", "symbolShadow": true},
          {"delimiter": {"open": "**", "close": "**"}, "styles": {"fontWeight": "bold", "color": "#aa0000"}}
        ]
      },
      "ghost": {"_type": "text", "id": "ghost", "visible": false}
    }
  }
}`

func TestParseLayoutDefaults(t *testing.T) {
	l, err := ParseLayout([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if l.Bleed.W != 10 || l.Bleed.H != 10 || l.Bleed.Visible {
		t.Fatalf("bleed defaults not applied: %+v", l.Bleed)
	}
	title := l.Items.ByID["title"]
	if title.FontFamily != "Arial" || title.FontSize != 16 || title.LineHeight != 1.2 || title.ParagraphGap != 4 {
		t.Fatalf("text defaults not applied: %+v", title)
	}
	if title.AlignV != "middle" || title.TextColor != "#000000" || !title.Visible {
		t.Fatalf("text defaults not applied: %+v", title)
	}
	if got := title.Style(); got != textlayout.StyleBold {
		t.Fatalf("style = %q", got)
	}
	bg := l.Items.ByID["bg"]
	if bg.FontSize != 0 || bg.BackgroundColor != "#eeeeee" {
		t.Fatalf("rectangle got text defaults: %+v", bg)
	}

	items := l.TextItems()
	if len(items) != 2 || items[0].ID != "title" || items[1].ID != "rules" {
		t.Fatalf("TextItems = %+v", items)
	}
}

func TestLayoutDefaultsWhenEmpty(t *testing.T) {
	l, err := ParseLayout([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if l.Name != "Unnamed" || l.Size.W != 320 || l.Size.H != 447 {
		t.Fatalf("layout defaults not applied: %+v", l)
	}
	if l.Items.ByID == nil || len(l.Items.Ordered()) != 0 {
		t.Fatalf("expected empty item list: %+v", l.Items)
	}
}

func TestTextRequest(t *testing.T) {
	l, err := ParseLayout([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	rules := l.Items.ByID["rules"]
	req := rules.TextRequest("Deal {R} damage.")
	if req.Width != 260 || req.Height != 160 {
		t.Fatalf("content box = %vx%v, want 260x160", req.Width, req.Height)
	}
	if req.AlignH != textlayout.AlignCenter || req.AlignV != textlayout.AlignTop {
		t.Fatalf("alignment = %s/%s", req.AlignH, req.AlignV)
	}
	if req.SectionGap != 12 || req.ParagraphGap != 4 || req.Font.Size != 16 || req.Font.Family != "Arial" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Font.Style != textlayout.StyleNormal || req.Font.Transform != textlayout.TransformNone {
		t.Fatalf("font = %+v", req.Font)
	}
	if len(req.Patterns) != 2 {
		t.Fatalf("patterns = %+v", req.Patterns)
	}
	sym, bold := req.Patterns[0], req.Patterns[1]
	if sym.Symbol == nil || sym.Symbol.Path != "symbols" || !sym.Symbol.Shadow || sym.IncludeDelimiter {
		t.Fatalf("symbol pattern = %+v", sym)
	}
	if bold.Symbol != nil || bold.Formatting.Style != textlayout.StyleBold || bold.Formatting.Color != "#aa0000" {
		t.Fatalf("bold pattern = %+v", bold)
	}
	if bold.Formatting.Transform != "" {
		t.Fatalf("unset transform should inherit, got %q", bold.Formatting.Transform)
	}
}

func TestPatternDefaults(t *testing.T) {
	var p Pattern
	if err := json.Unmarshal([]byte(`{"delimiter":{"open":"[","close":"]"},"delimiterMode":"include"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Type != PatternText {
		t.Fatalf("type default = %q", p.Type)
	}
	ep := p.ToEngine()
	if !ep.IncludeDelimiter || ep.Formatting.Style != "" || ep.Symbol != nil {
		t.Fatalf("engine pattern = %+v", ep)
	}
}

func TestCombineStyle(t *testing.T) {
	cases := []struct {
		weight, style string
		want          textlayout.Style
	}{
		{"", "", ""},
		{"normal", "normal", textlayout.StyleNormal},
		{"bold", "", textlayout.StyleBold},
		{"", "italic", textlayout.StyleItalic},
		{"bold", "italic", textlayout.StyleBoldItalic},
	}
	for _, c := range cases {
		if got := combineStyle(c.weight, c.style); got != c.want {
			t.Errorf("combineStyle(%q,%q) = %q, want %q", c.weight, c.style, got, c.want)
		}
	}
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	bad := []string{
		`{"size": {"w": 0, "h": 10}}`,
		`{"items": {"ids": ["a"], "byId": {"a": {"_type": "circle", "id": "a"}}}}`,
		`{"items": {"ids": ["a"], "byId": {"a": {"_type": "text", "id": "a", "alignH": "justify"}}}}`,
		`{"items": {"ids": ["a"], "byId": {"a": {"_type": "text", "id": "a", "patterns": [{"type": "emoji"}]}}}}`,
	}
	for _, doc := range bad {
		err := Validate([]byte(doc))
		var ve *ValidationError
		if !errors.As(err, &ve) || len(ve.Problems) == 0 {
			t.Errorf("expected schema violation for %s, got %v", doc, err)
		}
	}
	if err := Validate([]byte(`{`)); err == nil {
		t.Fatalf("expected error for broken json")
	}
}

func TestItemListAppend(t *testing.T) {
	var l ItemList
	l.Append(NewItem(ItemText, "a"))
	l.Append(NewItem(ItemImage, "b"))
	l.Append(NewItem(ItemText, "a"))
	if len(l.IDs) != 2 || len(l.Ordered()) != 2 {
		t.Fatalf("ids = %v", l.IDs)
	}
	b, err := json.Marshal(NewLayout("x", "X"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := Validate(b); err != nil {
		t.Fatalf("new layout should validate: %v", err)
	}
}
