/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// AlignVertical shifts every chunk down by the offset that places a block of
// blockHeight inside a box of maxH: nothing for top, the whole free space for
// bottom, half of it for middle. The offset is negative when the block
// overflows the box. The chunks are updated in place and returned.
func AlignVertical(chunks []Chunk, blockHeight, maxH float64, a AlignV) []Chunk {
	off := verticalOffset(blockHeight, maxH, a)
	if off == 0 {
		return chunks
	}
	for i := range chunks {
		chunks[i].Y += off
	}
	return chunks
}

func verticalOffset(blockHeight, maxH float64, a AlignV) float64 {
	switch a {
	case AlignBottom:
		return maxH - blockHeight
	case AlignMiddle:
		return (maxH - blockHeight) / 2
	}
	return 0
}
