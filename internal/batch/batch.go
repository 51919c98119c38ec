/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package batch lays out every text box of a layout for a list of data
// records, one card per record.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"gocardlayout/internal/domain"
	"gocardlayout/internal/interp"
	applog "gocardlayout/internal/log"
	"gocardlayout/internal/textlayout"
)

// Box is one laid out text item of a card.
type Box struct {
	ItemID string            `json:"itemId"`
	Text   string            `json:"text"`
	Result textlayout.Result `json:"result"`
}

// Card holds the text boxes produced for one record.
type Card struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Boxes []Box  `json:"boxes"`
}

// Overflowing returns the ids of boxes whose text did not fit.
func (c Card) Overflowing() []string {
	var ids []string
	for _, b := range c.Boxes {
		if b.Result.Overflow {
			ids = append(ids, b.ItemID)
		}
	}
	return ids
}

// Options tune Run.
type Options struct {
	// Workers bounds the number of records laid out concurrently. Zero or
	// less uses runtime.NumCPU.
	Workers int
	// NameField is the record path used for Card.Name. Cards whose record
	// has no such leaf are named by their index.
	NameField string
}

// Run interpolates and lays out every visible text item of layout for each
// record. Cards are returned in record order. Run stops at the first
// cancelled context; the layout of a single card is never interrupted.
func Run(ctx context.Context, layout domain.Layout, records []any, engine *textlayout.Engine, opts Options) ([]Card, error) {
	if engine == nil {
		return nil, fmt.Errorf("batch: nil engine")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	l := applog.WithOperation(applog.WithComponent("batch"), "run")
	ctx = applog.ContextWith(ctx, slog.String("layout", layout.ID))
	start := time.Now()

	items := layout.TextItems()
	cards := make([]Card, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cards[i] = RenderCard(i, rec, items, engine, opts.NameField)
			if over := cards[i].Overflowing(); len(over) > 0 {
				l.WarnContext(applog.ContextWith(gctx, slog.Int("record", i)), "text overflows at minimum size",
					slog.Any("items", over))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	l.InfoContext(ctx, "batch complete",
		slog.Int("cards", len(cards)),
		slog.Int("text_items", len(items)),
		slog.Int("workers", workers),
		slog.Duration("took", time.Since(start)))
	return cards, nil
}

// RenderCard lays out items for one record.
func RenderCard(index int, record any, items []domain.Item, engine *textlayout.Engine, nameField string) Card {
	card := Card{Index: index, Name: strconv.Itoa(index), Boxes: make([]Box, 0, len(items))}
	if nameField != "" {
		if name, ok := interp.Lookup(record, nameField); ok && name != "" {
			card.Name = name
		}
	}
	for _, it := range items {
		text := interp.Interpolate(it.Text, record)
		card.Boxes = append(card.Boxes, Box{
			ItemID: it.ID,
			Text:   text,
			Result: engine.Layout(it.TextRequest(text)),
		})
	}
	return card
}
