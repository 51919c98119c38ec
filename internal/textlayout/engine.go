/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	applog "gocardlayout/internal/log"
)

// Shrink strategies understood by WithStrategy.
const (
	ShrinkLinear = "linear"
	ShrinkBinary = "binary"
)

const (
	DefaultShrinkStep  = 0.1
	DefaultMinFontSize = 1.0
)

// Request describes one text box to lay out. Width and Height are the inner
// box size in pixels; Font.Size is the size to start shrinking from.
type Request struct {
	Text         string
	Font         Font
	Patterns     []Pattern
	Width        float64
	Height       float64
	LineHeight   float64
	ParagraphGap float64
	SectionGap   float64
	AlignH       AlignH
	AlignV       AlignV
}

// Result is a laid-out text box. Chunk coordinates are relative to the
// top-left corner of the box. Ascent is the font ascent at FontSize, which
// renderers add to a chunk's Y to get its baseline.
type Result struct {
	Chunks   []Chunk `json:"chunks"`
	FontSize float64 `json:"fontSize"`
	Height   float64 `json:"height"`
	Ascent   float64 `json:"ascent"`
	Attempts int     `json:"attempts"`
	Overflow bool    `json:"overflow,omitempty"`
}

// Engine fits text into boxes, shrinking the font until the packed block is
// no taller than the box. An Engine holds no per-call state and may be used
// from several goroutines if its Measurer may.
type Engine struct {
	m        Measurer
	strategy string
	step     float64
	minSize  float64
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy selects the shrink search. Unknown names keep linear.
func WithStrategy(name string) Option {
	return func(e *Engine) {
		if s := strings.ToLower(strings.TrimSpace(name)); s == ShrinkBinary {
			e.strategy = ShrinkBinary
		}
	}
}

// WithStep sets the font size decrement between attempts.
func WithStep(step float64) Option {
	return func(e *Engine) {
		if step > 0 {
			e.step = step
		}
	}
}

// WithMinSize sets the smallest font size the engine will try.
func WithMinSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.minSize = size
		}
	}
}

// WithLogger replaces the component logger used for overflow diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine returns an engine measuring with m. A nil m uses BasicMeasurer.
func NewEngine(m Measurer, opts ...Option) *Engine {
	if m == nil {
		m = BasicMeasurer{}
	}
	e := &Engine{
		m:        m,
		strategy: ShrinkLinear,
		step:     DefaultShrinkStep,
		minSize:  DefaultMinFontSize,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = applog.WithComponent("textlayout")
	}
	return e
}

// Measurer returns the measurer the engine was built with.
func (e *Engine) Measurer() Measurer { return e.m }

// Strategy returns the configured shrink strategy name.
func (e *Engine) Strategy() string { return e.strategy }

// Layout fits req.Text into the box. It never fails: text that is still too
// tall at the minimum size is returned at that size with Overflow set.
func (e *Engine) Layout(req Request) Result {
	var (
		block    Block
		attempts int
	)
	if e.strategy == ShrinkBinary {
		block, attempts = e.shrinkBinary(req)
	} else {
		block, attempts = e.shrinkLinear(req)
	}

	chunks := AlignVertical(block.Chunks(), block.Height, req.Height, req.AlignV)
	res := Result{
		Chunks:   chunks,
		FontSize: block.FontSize,
		Height:   block.Height,
		Ascent:   e.m.Metrics(req.Font.WithSize(block.FontSize)).Ascent,
		Attempts: attempts,
		Overflow: block.Height > req.Height,
	}
	if res.Overflow {
		e.log.Debug("text overflows box at minimum size",
			slog.String("size", fmt.Sprintf("%.1f", res.FontSize)),
			slog.Float64("height", res.Height),
			slog.Float64("max_height", req.Height),
			slog.Int("attempts", attempts))
	}
	return res
}

// pass runs one full tokenize and pack at the given size.
func (e *Engine) pass(req Request, size float64) Block {
	f := req.Font.WithSize(size)
	chunks := Tokenize(req.Text, f, req.Patterns, e.m)
	return Pack(chunks, f, PackParams{
		MaxW:         req.Width,
		LineHeight:   req.LineHeight,
		ParagraphGap: req.ParagraphGap,
		SectionGap:   req.SectionGap,
		AlignH:       req.AlignH,
	}, e.m)
}

// sizeAt returns the k-th size of the shrink grid and whether it is the last
// one. Sizes are computed from the start size rather than by repeated
// subtraction so that they land on the grid exactly.
func (e *Engine) sizeAt(initial float64, k int) (float64, bool) {
	if initial <= e.minSize {
		return initial, true
	}
	s := math.Round((initial-float64(k)*e.step)*1e6) / 1e6
	if s <= e.minSize {
		return e.minSize, true
	}
	return s, false
}

func (e *Engine) lastStep(initial float64) int {
	if initial <= e.minSize {
		return 0
	}
	return int(math.Ceil((initial-e.minSize)/e.step - 1e-9))
}

func (e *Engine) shrinkLinear(req Request) (Block, int) {
	for k := 0; ; k++ {
		size, last := e.sizeAt(req.Font.Size, k)
		b := e.pass(req, size)
		if b.Height <= req.Height || last {
			return b, k + 1
		}
	}
}

// shrinkBinary searches the same grid as shrinkLinear for the largest size
// that fits. The block height grows with the font size, so the result is the
// one the linear search would stop at.
func (e *Engine) shrinkBinary(req Request) (Block, int) {
	attempts := 0
	try := func(k int) Block {
		attempts++
		size, _ := e.sizeAt(req.Font.Size, k)
		return e.pass(req, size)
	}

	first := try(0)
	hiK := e.lastStep(req.Font.Size)
	if first.Height <= req.Height || hiK == 0 {
		return first, attempts
	}
	hi := try(hiK)
	if hi.Height > req.Height {
		return hi, attempts
	}
	lo := 0 // lo never fits, hiK always does
	for hiK-lo > 1 {
		mid := lo + (hiK-lo)/2
		b := try(mid)
		if b.Height <= req.Height {
			hiK, hi = mid, b
		} else {
			lo = mid
		}
	}
	return hi, attempts
}
