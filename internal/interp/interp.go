/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interp fills text templates from data records before layout.
//
// A template may reference record fields as <path.to.field> or
// <list[0].name>, and may contain the two-character escapes \n (paragraph
// break) and \v (section break) typed into single-line inputs.
package interp

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	placeholder = regexp.MustCompile(`<([^<>]+)>`)
	indexPart   = regexp.MustCompile(`\[(\w+)\]`)

	breaks = strings.NewReplacer(
		"\r\n", "\n",
		`\n`, "\n",
		`\v`, "\r",
		"\v", "\r",
	)
)

// Interpolate unescapes break escapes and replaces every placeholder with the
// leaf value it names in record. Placeholders naming an object, an array or
// nothing at all are replaced with the empty string. record is a value
// decoded by encoding/json (maps, slices, strings, float64 or json.Number,
// bools and nil); a nil record empties every placeholder.
func Interpolate(text string, record any) string {
	text = breaks.Replace(text)
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		v, _ := Lookup(record, m[1:len(m)-1])
		return v
	})
}

// Lookup resolves a dotted path with optional [index] parts against record
// and returns the leaf value as text. ok is false when the path does not end
// at a leaf. A null leaf resolves to "" with ok true.
func Lookup(record any, path string) (string, bool) {
	path = indexPart.ReplaceAllString(strings.TrimSpace(path), ".$1")
	v := record
	for _, key := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return "", false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return "", false
			}
			v = node[i]
		default:
			return "", false
		}
	}
	return leaf(v)
}

func leaf(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return "", false
}

// formatFloat prints whole numbers without a fraction and everything else in
// the shortest form that round-trips.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Decode parses a JSON record keeping numbers as written.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeList parses a JSON array of records, or a single object as a list of one.
func DecodeList(data []byte) ([]any, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}
