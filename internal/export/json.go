/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes laid out cards for inspection: a JSON dump of the
// positioned chunks and SVG previews.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gocardlayout/internal/batch"
)

// WriteJSON writes cards as indented JSON. Output is stable for equal input.
func WriteJSON(w io.Writer, cards []batch.Card) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cards); err != nil {
		return fmt.Errorf("encode cards: %w", err)
	}
	return nil
}
