/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "strings"

// AlignH is the horizontal alignment of every line in a box.
type AlignH string

const (
	AlignLeft   AlignH = "left"
	AlignCenter AlignH = "center"
	AlignRight  AlignH = "right"
)

// AlignV is the vertical alignment of the whole block in a box.
type AlignV string

const (
	AlignTop    AlignV = "top"
	AlignMiddle AlignV = "middle"
	AlignBottom AlignV = "bottom"
)

// ParseAlignH accepts left/center/right (and "centre"); anything else is left.
func ParseAlignH(s string) (AlignH, bool) {
	switch a := AlignH(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a, true
	case "centre":
		return AlignCenter, true
	}
	return AlignLeft, false
}

// ParseAlignV accepts top/middle/bottom (and "center"); anything else is top.
func ParseAlignV(s string) (AlignV, bool) {
	switch a := AlignV(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignTop, AlignMiddle, AlignBottom:
		return a, true
	case "center", "centre":
		return AlignMiddle, true
	}
	return AlignTop, false
}

// Line is a run of chunks sharing one vertical slot.
type Line struct {
	Chunks []Chunk
	Width  float64
}

// Paragraph is a group of wrapped lines. Break is the kind of break that
// ended it (ChunkParagraphBreak or ChunkSectionBreak); the last paragraph
// of a block ends with ChunkWord as "no break".
type Paragraph struct {
	Lines []Line
	Break ChunkKind
}

// Block is the result of one packing pass.
type Block struct {
	Paragraphs []Paragraph
	Height     float64
	FontSize   float64
}

// Chunks returns the positioned chunks of the block in reading order.
func (b Block) Chunks() []Chunk {
	var out []Chunk
	for _, p := range b.Paragraphs {
		for _, l := range p.Lines {
			out = append(out, l.Chunks...)
		}
	}
	return out
}

// Lines returns the number of lines over all paragraphs.
func (b Block) Lines() int {
	n := 0
	for _, p := range b.Paragraphs {
		n += len(p.Lines)
	}
	return n
}

// PackParams are the box geometry and spacing for Pack.
type PackParams struct {
	MaxW         float64
	LineHeight   float64 // multiplier applied to the font size for wrapped lines
	ParagraphGap float64 // extra space after "\n"
	SectionGap   float64 // extra space after "\r"
	AlignH       AlignH
}

// chunkQueue is a deque of pending chunks stored back to front, so both
// popping the front and pushing split pieces back onto the front are
// appends/truncations at the end of the slice.
type chunkQueue []Chunk

func newChunkQueue(chunks []Chunk) chunkQueue {
	q := make(chunkQueue, len(chunks))
	for i, c := range chunks {
		q[len(chunks)-1-i] = c
	}
	return q
}

func (q *chunkQueue) popFront() Chunk {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

// pushFront puts chunks at the front of the queue, keeping their order.
func (q *chunkQueue) pushFront(chunks []Chunk) {
	for i := len(chunks) - 1; i >= 0; i-- {
		*q = append(*q, chunks[i])
	}
}

// Pack lays chunks out greedily on lines of width p.MaxW, top to bottom.
// Line and paragraph breaks move down by the font size plus the paragraph
// or section gap; wraps move down by the chunk height times p.LineHeight.
// Whitespace at the start of a line is dropped. A chunk that does not fit
// closes the line and is pushed back split by BreakChunk. A single
// character that is wider than the box on its own is placed anyway. Each line is shifted horizontally once it is complete.
func Pack(chunks []Chunk, f Font, p PackParams, m Measurer) Block {
	block := Block{FontSize: f.Size}
	var (
		para Paragraph
		line Line
		x, y float64
	)
	closeLine := func() {
		off := alignOffset(p.MaxW, line.Width, p.AlignH)
		for i := range line.Chunks {
			line.Chunks[i].X += off
		}
		para.Lines = append(para.Lines, line)
		line = Line{}
		x = 0
	}

	q := newChunkQueue(chunks)
	for len(q) > 0 {
		c := q.popFront()
		switch {
		case c.Text == "":
			continue
		case c.IsBreak():
			closeLine()
			para.Break = c.Kind
			block.Paragraphs = append(block.Paragraphs, para)
			para = Paragraph{}
			gap := p.ParagraphGap
			if c.Kind == ChunkSectionBreak {
				gap = p.SectionGap
			}
			y += f.Size + gap
			continue
		case len(line.Chunks) == 0 && strings.TrimFunc(c.Text, isSpace) == "":
			continue
		}

		if x+c.W < p.MaxW || (len(line.Chunks) == 0 && c.irreducible()) {
			c.X, c.Y = x, y
			line.Chunks = append(line.Chunks, c)
			line.Width += c.W
			x += c.W
			continue
		}

		// The current line is closed even when it is empty, so a chunk
		// split at the start of a line leaves a blank line above its pieces.
		closeLine()
		y += c.H * p.LineHeight
		q.pushFront(BreakChunk(c, p.MaxW, f, m))
	}
	closeLine()
	para.Break = ChunkWord
	block.Paragraphs = append(block.Paragraphs, para)
	block.Height = y + f.Size
	return block
}

func alignOffset(maxW, lineW float64, a AlignH) float64 {
	switch a {
	case AlignRight:
		return maxW - lineW
	case AlignCenter:
		return (maxW - lineW) / 2
	}
	return 0
}
