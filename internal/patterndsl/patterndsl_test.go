/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package patterndsl

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"gocardlayout/internal/textlayout"
)

const sample = `
# inline styles
text "**" "**" style=bold color="#aa0000" transform=uppercase
text "_" "_" style=italic   # trailing comment

text "<" ">" keep style="bold italic"
symbol "{" "}" path="symbols/mana" shadow
symbol "[[" "]]" path=icons
`

func TestParseSample(t *testing.T) {
	got, err := ParseString("sample.rules", sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []textlayout.Pattern{
		{
			Delimiter:  textlayout.Delimiter{Open: "**", Close: "**"},
			Formatting: textlayout.Formatting{Style: textlayout.StyleBold, Color: "#aa0000", Transform: textlayout.TransformUppercase},
		},
		{
			Delimiter:  textlayout.Delimiter{Open: "_", Close: "_"},
			Formatting: textlayout.Formatting{Style: textlayout.StyleItalic},
		},
		{
			Delimiter:        textlayout.Delimiter{Open: "<", Close: ">"},
			IncludeDelimiter: true,
			Formatting:       textlayout.Formatting{Style: textlayout.StyleBoldItalic},
		},
		{
			Delimiter: textlayout.Delimiter{Open: "{", Close: "}"},
			Symbol:    &textlayout.Symbol{Path: "symbols/mana", Shadow: true},
		},
		{
			Delimiter: textlayout.Delimiter{Open: "[[", Close: "]]"},
			Symbol:    &textlayout.Symbol{Path: "icons"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("patterns mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	got, err := ParseString("empty", "\n# nothing here\n\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no patterns, got %+v", got)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		`text "*" "*" weight=bold`:     "unknown option",
		`text "*" "*" path="x"`:        "only valid for symbol",
		`text "*" "*" style=heavy`:     "unknown style",
		`text "*" "*" transform=small`: "unknown transform",
		`text "*" "*" keep keep`:       "given twice",
		`text "*" "*" keep=yes`:        "takes no value",
		`text "*" "*" color`:           "needs a value",
		`text "" "*"`:                  "must not be empty",
		`text "*"`:                     "",
		`rule "*" "*"`:                 "",
	}
	for src, frag := range cases {
		_, err := ParseString("bad.rules", src)
		if err == nil {
			t.Errorf("%s: expected error", src)
			continue
		}
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("%s: error %q does not mention %q", src, err, frag)
		}
		if !strings.Contains(err.Error(), "bad.rules:1:") {
			t.Errorf("%s: error %q has no position", src, err)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	want, err := ParseString("sample.rules", sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Format(&buf, want); err != nil {
		t.Fatalf("Format: %v", err)
	}
	got, err := ParseString("formatted", buf.String())
	if err != nil {
		t.Fatalf("re-parse %q: %v", buf.String(), err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch\n%s", buf.String())
	}
	if !strings.HasPrefix(buf.String(), `text "**" "**" style=bold transform=uppercase color="#aa0000"`) {
		t.Fatalf("unexpected first line: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}
