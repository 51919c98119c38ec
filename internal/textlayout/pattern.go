/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "strings"

// Delimiter is the open/close pair that marks an inline pattern span.
type Delimiter struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Formatting overrides applied to the text of a span. Empty fields inherit
// from the box font; an empty Color leaves the choice to the renderer.
type Formatting struct {
	Color     string    `json:"color,omitempty"`
	Style     Style     `json:"style,omitempty"`
	Transform Transform `json:"transform,omitempty"`
}

// Symbol marks a span whose words are symbol identifiers rendered as square
// images of side font size instead of glyphs.
type Symbol struct {
	Path   string `json:"path"`
	Shadow bool   `json:"shadow,omitempty"`
}

// Pattern is one inline markup rule. A pattern with an empty open or close
// delimiter never matches. When Symbol is set the span produces symbol
// chunks; otherwise Formatting applies.
type Pattern struct {
	Delimiter        Delimiter  `json:"delimiter"`
	IncludeDelimiter bool       `json:"includeDelimiter,omitempty"`
	Formatting       Formatting `json:"formatting,omitempty"`
	Symbol           *Symbol    `json:"symbol,omitempty"`
}

// Active reports whether the pattern participates in matching.
func (p Pattern) Active() bool { return p.Delimiter.Open != "" && p.Delimiter.Close != "" }

// Match is a pattern span found in a text. Start and End are byte offsets;
// the span is text[Start:End] including both delimiters.
type Match struct {
	Start, End int
	Pattern    Pattern
	Index      int // position of Pattern in the pattern list
}

// Inner returns the text the span contributes: the whole span when the
// pattern keeps its delimiters, else the part between them.
func (m Match) Inner(text string) string {
	if m.Pattern.IncludeDelimiter {
		return text[m.Start:m.End]
	}
	return text[m.Start+len(m.Pattern.Delimiter.Open) : m.End-len(m.Pattern.Delimiter.Close)]
}

// FindFirstMatch returns the pattern span that starts leftmost at or after
// cursor. For each active pattern the first open delimiter at or after cursor
// is paired with the first close delimiter after it. Ties on the start
// offset go to the pattern listed first. Delimiters are matched literally.
func FindFirstMatch(text string, cursor int, patterns []Pattern) (Match, bool) {
	var best Match
	found := false
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		return best, false
	}
	for i, p := range patterns {
		if !p.Active() {
			continue
		}
		open, close := p.Delimiter.Open, p.Delimiter.Close
		start := strings.Index(text[cursor:], open)
		if start < 0 {
			continue
		}
		start += cursor
		inner := start + len(open)
		end := strings.Index(text[inner:], close)
		if end < 0 {
			continue
		}
		end += inner + len(close)
		if !found || start < best.Start {
			best = Match{Start: start, End: end, Pattern: p, Index: i}
			found = true
		}
	}
	return best, found
}
