/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gocardlayout/internal/batch"
	"gocardlayout/internal/config"
	"gocardlayout/internal/crash"
	"gocardlayout/internal/domain"
	"gocardlayout/internal/export"
	"gocardlayout/internal/interp"
	applog "gocardlayout/internal/log"
	"gocardlayout/internal/patterndsl"
	"gocardlayout/internal/storage"
	"gocardlayout/internal/textlayout"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags maps flag errors to usage errors; the flag package has already
// printed the message and defaults.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError{}
	}
	return nil
}

func cmdValidate(args []string, stdout io.Writer, info *crash.Info) error {
	if len(args) != 1 {
		return usageError{"usage: gocardlayout validate <layout.json>"}
	}
	path := args[0]
	info.Inputs = map[string]string{"layout": path}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ve *domain.ValidationError
	if err := domain.Validate(data); errors.As(err, &ve) {
		for _, p := range ve.Problems {
			_, _ = fmt.Fprintln(stdout, "-", p)
		}
		return fmt.Errorf("%s: %d schema problem(s)", path, len(ve.Problems))
	} else if err != nil {
		return err
	}
	l, err := domain.ParseLayout(data)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "ok: %s (%d items, %d text)\n", l.Name, len(l.Items.IDs), len(l.TextItems()))
	return nil
}

func cmdText(args []string, cfg config.AppConfig, stdout, stderr io.Writer, info *crash.Info) error {
	fs := newFlagSet("text", stderr)
	width := fs.Float64("width", 200, "box width in pixels")
	height := fs.Float64("height", 100, "box height in pixels")
	size := fs.Float64("size", 16, "initial font size")
	family := fs.String("family", "Arial", "font family")
	style := fs.String("style", "normal", "font style: normal, bold, italic, bold italic")
	transform := fs.String("transform", "none", "text transform: none, lowercase, uppercase, capitalize")
	alignH := fs.String("align-h", "left", "horizontal alignment: left, center, right")
	alignV := fs.String("align-v", "middle", "vertical alignment: top, middle, bottom")
	lineHeight := fs.Float64("line-height", 1.2, "line height multiplier")
	paragraphGap := fs.Float64("paragraph-gap", 4, "extra space after a paragraph break")
	sectionGap := fs.Float64("section-gap", 8, "extra space after a section break")
	patternsFile := fs.String("patterns", "", "pattern rule file")
	recordFile := fs.String("record", "", "JSON record used to fill <field> placeholders")
	measurer := fs.String("measurer", cfg.Engine.Measurer, "text measurer: basic, face, shaping, pdf")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError{"usage: gocardlayout text [flags] <text...>"}
	}
	info.Inputs = map[string]string{"patterns": *patternsFile, "record": *recordFile}

	fontStyle, ok := textlayout.ParseStyle(*style)
	if !ok {
		return fmt.Errorf("unknown style %q", *style)
	}
	tr, ok := textlayout.ParseTransform(*transform)
	if !ok {
		return fmt.Errorf("unknown transform %q", *transform)
	}
	ah, ok := textlayout.ParseAlignH(*alignH)
	if !ok {
		return fmt.Errorf("unknown horizontal alignment %q", *alignH)
	}
	av, ok := textlayout.ParseAlignV(*alignV)
	if !ok {
		return fmt.Errorf("unknown vertical alignment %q", *alignV)
	}

	var patterns []textlayout.Pattern
	if *patternsFile != "" {
		f, err := os.Open(*patternsFile)
		if err != nil {
			return err
		}
		patterns, err = patterndsl.Parse(*patternsFile, f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	var record any
	if *recordFile != "" {
		data, err := os.ReadFile(*recordFile)
		if err != nil {
			return err
		}
		if record, err = interp.Decode(data); err != nil {
			return fmt.Errorf("decode record %s: %w", *recordFile, err)
		}
	}

	ec := cfg.Engine
	ec.Measurer = *measurer
	engine, err := buildEngine(ec)
	if err != nil {
		return err
	}
	res := engine.Layout(textlayout.Request{
		Text:         interp.Interpolate(strings.Join(fs.Args(), " "), record),
		Font:         textlayout.Font{Family: *family, Size: *size, Style: fontStyle.Or(textlayout.StyleNormal), Transform: tr},
		Patterns:     patterns,
		Width:        *width,
		Height:       *height,
		LineHeight:   *lineHeight,
		ParagraphGap: *paragraphGap,
		SectionGap:   *sectionGap,
		AlignH:       ah,
		AlignV:       av,
	})
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func cmdRender(args []string, cfg config.AppConfig, stdout, stderr io.Writer, info *crash.Info) error {
	fs := newFlagSet("render", stderr)
	workers := fs.Int("workers", cfg.Batch.Workers, "records laid out concurrently")
	indexPath := fs.String("index", cfg.Batch.IndexPath, "sqlite result index (empty disables)")
	writeSVG := fs.Bool("svg", cfg.Batch.WriteSVG, "write one SVG preview per card")
	nameField := fs.String("name-field", "name", "record field used as card name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return usageError{"usage: gocardlayout render [flags] <layout.json> <records.json> <outdir>"}
	}
	layoutPath, recordsPath, outDir := fs.Arg(0), fs.Arg(1), fs.Arg(2)
	info.ReportDir = outDir
	info.Inputs = map[string]string{"layout": layoutPath, "records": recordsPath, "index": *indexPath}

	layout, err := storage.OpenLayout(layoutPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(recordsPath)
	if err != nil {
		return err
	}
	records, err := interp.DecodeList(data)
	if err != nil {
		return fmt.Errorf("decode records %s: %w", recordsPath, err)
	}
	engine, err := buildEngine(cfg.Engine)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cards, err := batch.Run(ctx, layout, records, engine, batch.Options{Workers: *workers, NameField: *nameField})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := writeCardsJSON(filepath.Join(outDir, "cards.json"), cards); err != nil {
		return err
	}
	if *writeSVG {
		if _, err := export.WriteCardSVGs(outDir, layout, cards); err != nil {
			return err
		}
	}
	if *indexPath != "" {
		db, err := storage.OpenIndex(*indexPath)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := storage.SaveCards(ctx, db, layout.ID, cards); err != nil {
			return err
		}
	}

	overflowing := 0
	for _, c := range cards {
		if len(c.Overflowing()) > 0 {
			overflowing++
		}
	}
	applog.WithComponent("cli").Info("render finished",
		slog.String("layout", layout.ID), slog.Int("cards", len(cards)), slog.Int("overflowing", overflowing))
	_, _ = fmt.Fprintf(stdout, "rendered %d card(s) to %s (%d overflowing)\n", len(cards), outDir, overflowing)
	return nil
}

func writeCardsJSON(path string, cards []batch.Card) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteJSON(f, cards)
}

func cmdPatterns(args []string, stdout io.Writer, info *crash.Info) error {
	if len(args) != 1 {
		return usageError{"usage: gocardlayout patterns <file>"}
	}
	info.Inputs = map[string]string{"patterns": args[0]}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	patterns, err := patterndsl.Parse(args[0], f)
	if err != nil {
		return err
	}
	return patterndsl.Format(stdout, patterns)
}

func cmdConfig(args []string, cfg config.AppConfig, stdout io.Writer) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "path":
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, p)
	case "show":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case "init":
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("config already exists: %s", p)
		}
		if err := config.Save(p, config.Defaults()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, "wrote", p)
	default:
		return usageError{"usage: gocardlayout config [path|show|init]"}
	}
	return nil
}
