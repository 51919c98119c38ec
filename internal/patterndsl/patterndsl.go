/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package patterndsl reads and writes pattern rule files, a line oriented
// notation for the inline markup rules of a text box:
//
//	# bold red keywords
//	text "**" "**" style=bold color="#aa0000" transform=uppercase
//	text "<" ">" keep
//	symbol "{" "}" path="symbols/mana" shadow
//
// Each rule names its kind, the open and close delimiters and a list of
// options. "keep" leaves the delimiters in the laid out text.
package patterndsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"gocardlayout/internal/textlayout"
)

var (
	ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `=`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(ruleLexer),
		participle.Elide("Whitespace", "Comment"),
	)
)

// File is the parsed form of a rule file.
type File struct {
	Rules []*Rule `parser:"Newline* ( @@ Newline* )*"`
}

// Rule is one pattern line.
type Rule struct {
	Pos     lexer.Position
	Kind    string        `parser:"@( 'text' | 'symbol' )"`
	Open    StringLiteral `parser:"@String"`
	Close   StringLiteral `parser:"@String"`
	Options []*Option     `parser:"@@*"`
}

// Option is a bare flag or a key=value pair.
type Option struct {
	Pos   lexer.Position
	Key   string `parser:"@Ident"`
	Value *Value `parser:"( '=' @@ )?"`
}

type Value struct {
	Str  *StringLiteral `parser:"  @String"`
	Word *string        `parser:"| @Ident"`
}

func (v *Value) String() string {
	switch {
	case v == nil:
		return ""
	case v.Str != nil:
		return string(*v.Str)
	case v.Word != nil:
		return *v.Word
	}
	return ""
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// ParseFile parses rule text without interpreting the options.
func ParseFile(name string, r io.Reader) (*File, error) {
	return fileParser.Parse(name, r)
}

// Parse reads a rule file and returns its patterns in file order. name is
// used in error positions.
func Parse(name string, r io.Reader) ([]textlayout.Pattern, error) {
	f, err := ParseFile(name, r)
	if err != nil {
		return nil, err
	}
	out := make([]textlayout.Pattern, 0, len(f.Rules))
	for _, rule := range f.Rules {
		p, err := rule.Pattern()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseString is Parse over a string.
func ParseString(name, src string) ([]textlayout.Pattern, error) {
	return Parse(name, strings.NewReader(src))
}

// Pattern interprets the rule.
func (r *Rule) Pattern() (textlayout.Pattern, error) {
	p := textlayout.Pattern{Delimiter: textlayout.Delimiter{Open: string(r.Open), Close: string(r.Close)}}
	if p.Delimiter.Open == "" || p.Delimiter.Close == "" {
		return p, fmt.Errorf("%s: delimiters must not be empty", r.Pos)
	}
	if r.Kind == "symbol" {
		p.Symbol = &textlayout.Symbol{}
	}
	seen := map[string]bool{}
	for _, o := range r.Options {
		if seen[o.Key] {
			return p, fmt.Errorf("%s: option %q given twice", o.Pos, o.Key)
		}
		seen[o.Key] = true
		if err := o.apply(&p); err != nil {
			return p, fmt.Errorf("%s: %w", o.Pos, err)
		}
	}
	return p, nil
}

func (o *Option) apply(p *textlayout.Pattern) error {
	val := o.Value.String()
	needValue := func() error {
		if o.Value == nil {
			return fmt.Errorf("option %q needs a value", o.Key)
		}
		return nil
	}
	flag := func() error {
		if o.Value != nil {
			return fmt.Errorf("option %q takes no value", o.Key)
		}
		return nil
	}
	symbolOnly := func() error {
		if p.Symbol == nil {
			return fmt.Errorf("option %q is only valid for symbol rules", o.Key)
		}
		return nil
	}

	switch o.Key {
	case "keep":
		if err := flag(); err != nil {
			return err
		}
		p.IncludeDelimiter = true
	case "style":
		if err := needValue(); err != nil {
			return err
		}
		st, ok := textlayout.ParseStyle(val)
		if !ok {
			return fmt.Errorf("unknown style %q", val)
		}
		p.Formatting.Style = st
	case "transform":
		if err := needValue(); err != nil {
			return err
		}
		t, ok := textlayout.ParseTransform(val)
		if !ok {
			return fmt.Errorf("unknown transform %q", val)
		}
		p.Formatting.Transform = t
	case "color":
		if err := needValue(); err != nil {
			return err
		}
		p.Formatting.Color = val
	case "path":
		if err := symbolOnly(); err != nil {
			return err
		}
		if err := needValue(); err != nil {
			return err
		}
		p.Symbol.Path = val
	case "shadow":
		if err := symbolOnly(); err != nil {
			return err
		}
		if err := flag(); err != nil {
			return err
		}
		p.Symbol.Shadow = true
	default:
		return fmt.Errorf("unknown option %q", o.Key)
	}
	return nil
}

// Format writes patterns in rule file notation. Parsing the output yields
// the same patterns.
func Format(w io.Writer, patterns []textlayout.Pattern) error {
	for _, p := range patterns {
		var b strings.Builder
		kind := "text"
		if p.Symbol != nil {
			kind = "symbol"
		}
		fmt.Fprintf(&b, "%s %s %s", kind, strconv.Quote(p.Delimiter.Open), strconv.Quote(p.Delimiter.Close))
		if p.Formatting.Style != "" {
			fmt.Fprintf(&b, " style=%s", strings.ReplaceAll(string(p.Formatting.Style), " ", "-"))
		}
		if p.Formatting.Transform != "" {
			fmt.Fprintf(&b, " transform=%s", p.Formatting.Transform)
		}
		if p.Formatting.Color != "" {
			fmt.Fprintf(&b, " color=%s", strconv.Quote(p.Formatting.Color))
		}
		if p.IncludeDelimiter {
			b.WriteString(" keep")
		}
		if p.Symbol != nil {
			if p.Symbol.Path != "" {
				fmt.Fprintf(&b, " path=%s", strconv.Quote(p.Symbol.Path))
			}
			if p.Symbol.Shadow {
				b.WriteString(" shadow")
			}
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
