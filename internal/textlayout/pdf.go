/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// PDFMeasurer measures with the standard PDF core-font metrics (Helvetica,
// Times, Courier) as gofpdf computes them. With the point as unit one point
// equals one pixel. Families other than the three core ones are measured as
// Helvetica; Arial is metric-compatible with it.
type PDFMeasurer struct {
	mu  sync.Mutex
	pdf *gofpdf.Fpdf
}

func NewPDFMeasurer() *PDFMeasurer {
	return &PDFMeasurer{pdf: gofpdf.New("P", "pt", "A4", "")}
}

func (m *PDFMeasurer) Advance(text string, f Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(coreFamily(f.Family), pdfStyle(f.Style), f.Size)
	if m.pdf.Err() {
		m.pdf.ClearError()
		return BasicMeasurer{}.Advance(text, f)
	}
	return m.pdf.GetStringWidth(text)
}

// core font ascender/descender per 1000 units of em, from the AFM files.
var coreMetrics = map[string][2]float64{
	"Helvetica": {718, 207},
	"Times":     {683, 217},
	"Courier":   {629, 157},
}

func (m *PDFMeasurer) Metrics(f Font) Metrics {
	cm := coreMetrics[coreFamily(f.Family)]
	asc := cm[0] * f.Size / 1000
	desc := cm[1] * f.Size / 1000
	return Metrics{Ascent: asc, Descent: desc, LineGap: f.Size*1.2 - asc - desc}
}

func coreFamily(family string) string {
	fam := strings.ToLower(family)
	switch {
	case strings.Contains(fam, "times"), strings.Contains(fam, "serif") && !strings.Contains(fam, "sans"):
		return "Times"
	case strings.Contains(fam, "courier"), strings.Contains(fam, "mono"):
		return "Courier"
	}
	return "Helvetica"
}

func pdfStyle(s Style) string {
	switch s {
	case StyleBold:
		return "B"
	case StyleItalic:
		return "I"
	case StyleBoldItalic:
		return "BI"
	}
	return ""
}
