/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"path"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ChunkKind classifies a Chunk.
type ChunkKind int

const (
	ChunkWord ChunkKind = iota
	ChunkSpace
	ChunkParagraphBreak // "\n"
	ChunkSectionBreak   // "\r"
	ChunkSymbol
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkWord:
		return "word"
	case ChunkSpace:
		return "space"
	case ChunkParagraphBreak:
		return "paragraph"
	case ChunkSectionBreak:
		return "section"
	case ChunkSymbol:
		return "symbol"
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k ChunkKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name written by MarshalText.
func (k *ChunkKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "word":
		*k = ChunkWord
	case "space":
		*k = ChunkSpace
	case "paragraph":
		*k = ChunkParagraphBreak
	case "section":
		*k = ChunkSectionBreak
	case "symbol":
		*k = ChunkSymbol
	default:
		return &UnknownKindError{Name: string(b)}
	}
	return nil
}

// UnknownKindError is returned when decoding an unknown chunk kind.
type UnknownKindError struct{ Name string }

func (e *UnknownKindError) Error() string { return "textlayout: unknown chunk kind " + e.Name }

// Chunk is an atomic piece of laid out text. X and Y are relative to the
// top-left corner of the box and are only meaningful after packing. H is the
// line box height, which is the font size of the pass that produced it.
type Chunk struct {
	Kind   ChunkKind `json:"kind"`
	Text   string    `json:"text"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	W      float64   `json:"w"`
	H      float64   `json:"h"`
	Style  Style     `json:"style"`
	Color  string    `json:"color,omitempty"`
	Symbol *Symbol   `json:"symbol,omitempty"`
}

// IsBreak reports whether the chunk is a paragraph or section break.
func (c Chunk) IsBreak() bool { return c.Kind == ChunkParagraphBreak || c.Kind == ChunkSectionBreak }

// SymbolFile returns the image path of a symbol chunk ("<path>/<text>.svg"),
// or "" for other chunks.
func (c Chunk) SymbolFile() string {
	if c.Kind != ChunkSymbol || c.Symbol == nil {
		return ""
	}
	return path.Join(c.Symbol.Path, c.Text+".svg")
}

// irreducible reports whether the packer has to place c even though it
// overflows: a single character cannot be split further.
func (c Chunk) irreducible() bool {
	return utf8.RuneCountInString(c.Text) <= 1
}

// ApplyTransform applies a case transform to text. Capitalize upper-cases
// the first letter of every word and leaves the remaining letters as they are.
func ApplyTransform(text string, t Transform) string {
	switch t {
	case TransformLowercase:
		return cases.Lower(language.Und).String(text)
	case TransformUppercase:
		return cases.Upper(language.Und).String(text)
	case TransformCapitalize:
		return cases.Title(language.Und, cases.NoLower).String(text)
	}
	return text
}

// Format turns one span of text into chunks: the case transform is applied,
// the result is split into tokens (one per break rune, runs of whitespace,
// runs of everything else), and each token is measured. When symbol is set,
// every token except a break becomes a symbol chunk as wide as the font size.
func Format(text string, f Font, formatting Formatting, symbol *Symbol, m Measurer) []Chunk {
	text = ApplyTransform(text, formatting.Transform.Or(f.Transform))
	style := formatting.Style.Or(f.Style)
	runFont := f.WithStyle(style)

	tokens := splitTokens(text)
	chunks := make([]Chunk, 0, len(tokens))
	for _, tok := range tokens {
		c := Chunk{Kind: tok.kind, Text: tok.text, H: f.Size, Style: style, Color: formatting.Color}
		switch {
		case c.IsBreak():
		case symbol != nil:
			sym := *symbol
			c.Kind = ChunkSymbol
			c.Symbol = &sym
			c.Color = ""
			c.W = f.Size
		default:
			c.W = m.Advance(c.Text, runFont)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

type token struct {
	kind ChunkKind
	text string
}

// splitTokens is the tokenizer behind Format.
func splitTokens(text string) []token {
	var out []token
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == '\n':
			out = append(out, token{ChunkParagraphBreak, "\n"})
			i += size
			continue
		case r == '\r':
			out = append(out, token{ChunkSectionBreak, "\r"})
			i += size
			continue
		}
		space := isSpace(r)
		j := i + size
		for j < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[j:])
			if r2 == '\n' || r2 == '\r' || isSpace(r2) != space {
				break
			}
			j += s2
		}
		kind := ChunkWord
		if space {
			kind = ChunkSpace
		}
		out = append(out, token{kind, text[i:j]})
		i = j
	}
	return out
}

func isSpace(r rune) bool { return r != '\n' && r != '\r' && unicode.IsSpace(r) }

// Tokenize runs the pattern matcher over text and formats every matched and
// unmatched span, producing the chunk stream for one layout pass. Scanning
// resumes after the end of each matched span.
func Tokenize(text string, f Font, patterns []Pattern, m Measurer) []Chunk {
	var chunks []Chunk
	cursor := 0
	for cursor < len(text) {
		match, ok := FindFirstMatch(text, cursor, patterns)
		if !ok {
			chunks = append(chunks, Format(text[cursor:], f, Formatting{}, nil, m)...)
			break
		}
		if match.Start > cursor {
			chunks = append(chunks, Format(text[cursor:match.Start], f, Formatting{}, nil, m)...)
		}
		chunks = append(chunks, Format(match.Inner(text), f, match.Pattern.Formatting, match.Pattern.Symbol, m)...)
		cursor = match.End
	}
	return chunks
}
