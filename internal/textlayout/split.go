/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "unicode/utf8"

// BreakChunk splits a chunk that is at least maxW wide by bisecting it at its
// rune midpoint and re-measuring both halves, recursively, until every piece
// is narrower than maxW or a single character. Pieces are returned in text
// order. Splits fall on rune boundaries, not grapheme clusters, and no
// hyphen is inserted. Symbol pieces stay as wide as the font size. Breaks
// are returned unchanged.
func BreakChunk(c Chunk, maxW float64, f Font, m Measurer) []Chunk {
	if c.IsBreak() {
		return []Chunk{c}
	}
	runFont := f.WithStyle(c.Style)

	var out []Chunk
	// Depth-first over an explicit stack; the right half is pushed first so
	// the left half is emitted first.
	stack := []Chunk{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := utf8.RuneCountInString(cur.Text)
		if cur.W < maxW || n <= 1 {
			out = append(out, cur)
			continue
		}
		cut := runeOffset(cur.Text, n/2)
		left, right := cur, cur
		left.Text, right.Text = cur.Text[:cut], cur.Text[cut:]
		if cur.Kind == ChunkSymbol {
			left.W, right.W = f.Size, f.Size
		} else {
			left.W = m.Advance(left.Text, runFont)
			right.W = m.Advance(right.Text, runFont)
		}
		stack = append(stack, right, left)
	}
	return out
}

// runeOffset returns the byte offset of the n-th rune of s.
func runeOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}
