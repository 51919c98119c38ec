/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the card layout document: a card size, an optional
// bleed, and an ordered list of boxes. Text boxes carry the typography and
// inline patterns handed to the text layout engine. The JSON form matches the
// files written by the card designer, so missing fields take the designer's
// defaults when decoded.

import (
	"encoding/json"
	"strings"

	"gocardlayout/internal/textlayout"
)

// Item types.
const (
	ItemImage     = "image"
	ItemRectangle = "rectangle"
	ItemLine      = "line"
	ItemText      = "text"
)

// Layout is a card template.
type Layout struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Size  Size     `json:"size"`
	Bleed Bleed    `json:"bleed"`
	Items ItemList `json:"items"`
}

// Size of the card in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Bleed struct {
	Color   string  `json:"color"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Visible bool    `json:"visible"`
}

// ItemList stores items by id plus their drawing order.
type ItemList struct {
	IDs  []string        `json:"ids"`
	ByID map[string]Item `json:"byId"`
}

// Ordered returns the items in drawing order, skipping ids without an item.
func (l ItemList) Ordered() []Item {
	out := make([]Item, 0, len(l.IDs))
	for _, id := range l.IDs {
		if it, ok := l.ByID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Append adds it at the end of the drawing order.
func (l *ItemList) Append(it Item) {
	if l.ByID == nil {
		l.ByID = make(map[string]Item)
	}
	if _, exists := l.ByID[it.ID]; !exists {
		l.IDs = append(l.IDs, it.ID)
	}
	l.ByID[it.ID] = it
}

type BorderRadius struct {
	BL float64 `json:"bl"`
	BR float64 `json:"br"`
	TL float64 `json:"tl"`
	TR float64 `json:"tr"`
}

type Border struct {
	Color  string       `json:"color"`
	Radius BorderRadius `json:"radius"`
	Width  float64      `json:"width"`
}

// Item is one box on the card. The box spans (X0,Y0)-(X1,Y1); padding
// shrinks the content area of text boxes. Source is used by image and
// rectangle items, the text fields by text items.
type Item struct {
	Type    string `json:"_type"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`

	BackgroundColor string `json:"backgroundColor"`
	Border          Border `json:"border"`

	PB float64 `json:"pb"`
	PL float64 `json:"pl"`
	PR float64 `json:"pr"`
	PT float64 `json:"pt"`

	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`

	Source string `json:"source,omitempty"`

	AlignH        string    `json:"alignH,omitempty"`
	AlignV        string    `json:"alignV,omitempty"`
	FontFamily    string    `json:"fontFamily,omitempty"`
	FontSize      float64   `json:"fontSize,omitempty"`
	FontStyle     string    `json:"fontStyle,omitempty"`
	FontWeight    string    `json:"fontWeight,omitempty"`
	LineHeight    float64   `json:"lineHeight,omitempty"`
	ParagraphGap  float64   `json:"paragraphGap,omitempty"`
	SectionGap    float64   `json:"sectionGap,omitempty"`
	Patterns      []Pattern `json:"patterns,omitempty"`
	Text          string    `json:"text,omitempty"`
	TextColor     string    `json:"textColor,omitempty"`
	TextTransform string    `json:"textTransform,omitempty"`
}

// NewItem returns an item of the given type with the designer defaults.
func NewItem(typ, id string) Item {
	it := Item{
		Type:            typ,
		ID:              id,
		Visible:         true,
		BackgroundColor: "rgba(255, 255, 255, 0)",
		Border:          Border{Color: "rgba(0, 0, 0, 1)"},
	}
	if typ == ItemText {
		it.AlignH = string(textlayout.AlignLeft)
		it.AlignV = string(textlayout.AlignMiddle)
		it.FontFamily = "Arial"
		it.FontSize = 16
		it.FontStyle = "normal"
		it.FontWeight = "normal"
		it.LineHeight = 1.2
		it.ParagraphGap = 4
		it.SectionGap = 8
		it.TextColor = "#000000"
		it.TextTransform = string(textlayout.TransformNone)
	}
	return it
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	type plain Item
	v := plain(NewItem(head.Type, ""))
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*it = Item(v)
	return nil
}

// ContentWidth is the box width minus the horizontal padding.
func (it Item) ContentWidth() float64 { return it.X1 - it.X0 - it.PL - it.PR }

// ContentHeight is the box height minus the vertical padding.
func (it Item) ContentHeight() float64 { return it.Y1 - it.Y0 - it.PT - it.PB }

// Style combines the weight and style fields into one engine style.
func (it Item) Style() textlayout.Style { return combineStyle(it.FontWeight, it.FontStyle) }

// EnginePatterns converts the item's patterns.
func (it Item) EnginePatterns() []textlayout.Pattern {
	out := make([]textlayout.Pattern, 0, len(it.Patterns))
	for _, p := range it.Patterns {
		out = append(out, p.ToEngine())
	}
	return out
}

// TextRequest builds the layout request for text in the item's content box.
// text is usually the item's Text after interpolation.
func (it Item) TextRequest(text string) textlayout.Request {
	alignH, _ := textlayout.ParseAlignH(it.AlignH)
	alignV, _ := textlayout.ParseAlignV(it.AlignV)
	transform, _ := textlayout.ParseTransform(it.TextTransform)
	return textlayout.Request{
		Text: text,
		Font: textlayout.Font{
			Family:    it.FontFamily,
			Size:      it.FontSize,
			Style:     it.Style(),
			Transform: transform,
		},
		Patterns:     it.EnginePatterns(),
		Width:        it.ContentWidth(),
		Height:       it.ContentHeight(),
		LineHeight:   it.LineHeight,
		ParagraphGap: it.ParagraphGap,
		SectionGap:   it.SectionGap,
		AlignH:       alignH,
		AlignV:       alignV,
	}
}

// Delimiter modes.
const (
	DelimiterInclude = "include"
	DelimiterExclude = "exclude"
)

// Pattern types.
const (
	PatternText   = "text"
	PatternSymbol = "symbol"
)

// PatternStyles overrides the text style inside a pattern span. Empty fields
// inherit from the text box.
type PatternStyles struct {
	FontStyle     string `json:"fontStyle,omitempty"`
	FontWeight    string `json:"fontWeight,omitempty"`
	TextTransform string `json:"textTransform,omitempty"`
	Color         string `json:"color,omitempty"`
}

type PatternDelimiter struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Pattern is an inline markup rule of a text box.
type Pattern struct {
	Delimiter     PatternDelimiter `json:"delimiter"`
	DelimiterMode string           `json:"delimiterMode"`
	Styles        PatternStyles    `json:"styles"`
	Type          string           `json:"type"`
	SymbolPath    string           `json:"symbolPath,omitempty"`
	SymbolShadow  bool             `json:"symbolShadow,omitempty"`
}

func (p *Pattern) UnmarshalJSON(data []byte) error {
	type plain Pattern
	v := plain{DelimiterMode: DelimiterExclude, Type: PatternText}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Pattern(v)
	return nil
}

// ToEngine converts the document form into the engine's pattern.
func (p Pattern) ToEngine() textlayout.Pattern {
	transform, _ := textlayout.ParseTransform(p.Styles.TextTransform)
	out := textlayout.Pattern{
		Delimiter:        textlayout.Delimiter{Open: p.Delimiter.Open, Close: p.Delimiter.Close},
		IncludeDelimiter: p.DelimiterMode == DelimiterInclude,
		Formatting: textlayout.Formatting{
			Color:     p.Styles.Color,
			Style:     combineStyle(p.Styles.FontWeight, p.Styles.FontStyle),
			Transform: transform,
		},
	}
	if p.Type == PatternSymbol {
		out.Symbol = &textlayout.Symbol{Path: p.SymbolPath, Shadow: p.SymbolShadow}
	}
	return out
}

// combineStyle merges a CSS-like weight and style pair. Both empty yields
// the empty (inherit) style.
func combineStyle(weight, style string) textlayout.Style {
	weight = strings.ToLower(strings.TrimSpace(weight))
	style = strings.ToLower(strings.TrimSpace(style))
	if weight == "" && style == "" {
		return ""
	}
	bold := weight == "bold"
	italic := style == "italic"
	switch {
	case bold && italic:
		return textlayout.StyleBoldItalic
	case bold:
		return textlayout.StyleBold
	case italic:
		return textlayout.StyleItalic
	}
	return textlayout.StyleNormal
}

// NewLayout returns an empty layout with the designer defaults.
func NewLayout(id, name string) Layout {
	return Layout{
		ID:    id,
		Name:  name,
		Size:  Size{W: 320, H: 447},
		Bleed: Bleed{Color: "rgba(0, 0, 0, 1)", W: 10, H: 10},
		Items: ItemList{IDs: []string{}, ByID: map[string]Item{}},
	}
}

func (l *Layout) UnmarshalJSON(data []byte) error {
	type plain Layout
	v := plain(NewLayout("", "Unnamed"))
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Items.ByID == nil {
		v.Items.ByID = map[string]Item{}
	}
	*l = Layout(v)
	return nil
}

// TextItems returns the visible text items in drawing order.
func (l Layout) TextItems() []Item {
	var out []Item
	for _, it := range l.Items.Ordered() {
		if it.Type == ItemText && it.Visible {
			out = append(out, it)
		}
	}
	return out
}
