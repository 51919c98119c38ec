/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocardlayout/internal/config"
	"gocardlayout/internal/crash"
	"gocardlayout/internal/domain"
	"gocardlayout/internal/storage"
	"gocardlayout/internal/version"
)

func testConfig() config.AppConfig {
	cfg := config.Defaults()
	cfg.Engine.Measurer = "basic"
	cfg.Batch.Workers = 2
	return cfg
}

func runCLI(t *testing.T, cfg config.AppConfig, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, cfg, &out, &errOut, &crash.Info{})
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func saveTestLayout(t *testing.T, dir string) string {
	t.Helper()
	l := domain.NewLayout("deck", "Deck")
	title := domain.NewItem(domain.ItemText, "title")
	title.X1, title.Y1 = 300, 40
	title.Text = "<name>"
	rules := domain.NewItem(domain.ItemText, "rules")
	rules.X0, rules.Y0, rules.X1, rules.Y1 = 10, 50, 310, 200
	rules.Text = `Costs <cost>.\nDraw a card.`
	l.Items.Append(title)
	l.Items.Append(rules)
	p := filepath.Join(dir, "deck.json")
	if err := storage.SaveLayout(p, l); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	return p
}

func TestRunUsage(t *testing.T) {
	if code, _, errOut := runCLI(t, testConfig()); code != 2 || !strings.Contains(errOut, "Usage:") {
		t.Fatalf("no args: code=%d stderr=%q", code, errOut)
	}
	if code, _, errOut := runCLI(t, testConfig(), "bogus"); code != 2 || !strings.Contains(errOut, "unknown command: bogus") {
		t.Fatalf("unknown command: code=%d stderr=%q", code, errOut)
	}
	if code, _, _ := runCLI(t, testConfig(), "text", "-nosuchflag", "x"); code != 2 {
		t.Fatalf("bad flag: code=%d, want 2", code)
	}
	if code, _, _ := runCLI(t, testConfig(), "render", "only-one-arg"); code != 2 {
		t.Fatalf("render arity: code=%d, want 2", code)
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := runCLI(t, testConfig(), "version")
	if code != 0 || strings.TrimSpace(out) != version.String() {
		t.Fatalf("version: code=%d out=%q", code, out)
	}
}

func TestRunText(t *testing.T) {
	code, out, errOut := runCLI(t, testConfig(), "text", "-width", "200", "-height", "100", "-align-v", "top", "Hello", "world")
	if code != 0 {
		t.Fatalf("text: code=%d stderr=%q", code, errOut)
	}
	var res struct {
		FontSize float64 `json:"fontSize"`
		Overflow bool    `json:"overflow"`
		Chunks   []struct {
			Kind string  `json:"kind"`
			Text string  `json:"text"`
			Y    float64 `json:"y"`
		} `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.FontSize != 16 || res.Overflow {
		t.Fatalf("fontSize=%v overflow=%v", res.FontSize, res.Overflow)
	}
	if len(res.Chunks) == 0 || res.Chunks[0].Text != "Hello" || res.Chunks[0].Y != 0 {
		t.Fatalf("unexpected chunks: %+v", res.Chunks)
	}
}

func TestRunTextWithPatternsAndRecord(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "deck.rules", "text \"*\" \"*\" style=bold\n")
	record := writeFile(t, dir, "card.json", `{"name":"Goblin"}`)
	code, out, errOut := runCLI(t, testConfig(), "text", "-patterns", rules, "-record", record, "*<name>*")
	if code != 0 {
		t.Fatalf("text: code=%d stderr=%q", code, errOut)
	}
	if !strings.Contains(out, `"text": "Goblin"`) || !strings.Contains(out, `"style": "bold"`) {
		t.Fatalf("expected bold Goblin chunk, got %s", out)
	}
}

func TestRunTextRejectsBadValues(t *testing.T) {
	for _, args := range [][]string{
		{"text", "-style", "heavy", "x"},
		{"text", "-align-h", "justify", "x"},
		{"text", "-measurer", "laser", "x"},
	} {
		if code, _, _ := runCLI(t, testConfig(), args...); code != 1 {
			t.Fatalf("%v: code=%d, want 1", args, code)
		}
	}
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	good := saveTestLayout(t, dir)
	code, out, errOut := runCLI(t, testConfig(), "validate", good)
	if code != 0 || !strings.HasPrefix(out, "ok: Deck (2 items, 2 text)") {
		t.Fatalf("validate good: code=%d out=%q stderr=%q", code, out, errOut)
	}
	bad := writeFile(t, dir, "bad.json", `{"size":{"w":-1,"h":10}}`)
	code, out, errOut = runCLI(t, testConfig(), "validate", bad)
	if code != 1 || !strings.HasPrefix(out, "- ") || !strings.Contains(errOut, "schema problem") {
		t.Fatalf("validate bad: code=%d out=%q stderr=%q", code, out, errOut)
	}
}

func TestRunPatterns(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "deck.rules", "# symbols\nsymbol \"{\" \"}\" path=\"symbols/mana\" shadow\n")
	code, out, errOut := runCLI(t, testConfig(), "patterns", p)
	if code != 0 {
		t.Fatalf("patterns: code=%d stderr=%q", code, errOut)
	}
	if !strings.HasPrefix(out, `symbol "{" "}"`) || !strings.Contains(out, "shadow") {
		t.Fatalf("unexpected output %q", out)
	}

	bad := writeFile(t, dir, "bad.rules", "text \"*\"\n")
	if code, _, errOut := runCLI(t, testConfig(), "patterns", bad); code != 1 || !strings.Contains(errOut, "bad.rules:1:") {
		t.Fatalf("bad patterns: code=%d stderr=%q", code, errOut)
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	layoutPath := saveTestLayout(t, dir)
	records := writeFile(t, dir, "records.json", `[{"name":"Goblin","cost":1},{"name":"Troll","cost":4}]`)
	out := filepath.Join(dir, "out")
	cfg := testConfig()
	cfg.Batch.IndexPath = filepath.Join(dir, "index.db")

	code, stdout, errOut := runCLI(t, cfg, "render", layoutPath, records, out)
	if code != 0 {
		t.Fatalf("render: code=%d stderr=%q", code, errOut)
	}
	if !strings.HasPrefix(stdout, "rendered 2 card(s)") {
		t.Fatalf("unexpected summary %q", stdout)
	}
	for _, name := range []string{"cards.json", "card-0.svg", "card-1.svg"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(out, "cards.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Troll") {
		t.Fatalf("cards.json lacks record text: %s", data)
	}

	db, err := storage.OpenIndex(cfg.Batch.IndexPath)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer func() { _ = db.Close() }()
	n, err := storage.CountCards(context.Background(), db, "deck")
	if err != nil || n != 2 {
		t.Fatalf("CountCards = %d, %v; want 2", n, err)
	}
}

func TestRunRenderWithoutSVG(t *testing.T) {
	dir := t.TempDir()
	layoutPath := saveTestLayout(t, dir)
	records := writeFile(t, dir, "records.json", `{"name":"Solo","cost":0}`)
	out := filepath.Join(dir, "out")
	if code, _, errOut := runCLI(t, testConfig(), "render", "-svg=false", layoutPath, records, out); code != 0 {
		t.Fatalf("render: code=%d stderr=%q", code, errOut)
	}
	if _, err := os.Stat(filepath.Join(out, "card-0.svg")); !os.IsNotExist(err) {
		t.Fatalf("svg written despite -svg=false: %v", err)
	}
}

func TestRunConfigShow(t *testing.T) {
	code, out, _ := runCLI(t, testConfig(), "config", "show")
	if code != 0 || !strings.Contains(out, "measurer: basic") {
		t.Fatalf("config show: code=%d out=%q", code, out)
	}
}

func TestRunConfigInit(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	t.Setenv(config.EnvConfigPath, p)
	if code, _, errOut := runCLI(t, testConfig(), "config", "init"); code != 0 {
		t.Fatalf("init: code=%d stderr=%q", code, errOut)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if code, _, _ := runCLI(t, testConfig(), "config", "init"); code != 1 {
		t.Fatalf("second init: code=%d, want 1", code)
	}
}

func TestFontVariant(t *testing.T) {
	cases := []struct {
		in         config.FontConfig
		family     string
		wantStyled string
	}{
		{config.FontConfig{Family: "Garamond Bold Italic", Path: "g.ttf"}, "Garamond", "bold italic"},
		{config.FontConfig{Family: "Garamond", Style: "italic", Path: "g.ttf"}, "Garamond", "italic"},
		{config.FontConfig{Path: "/fonts/Inter Bold.ttf"}, "Inter", "bold"},
	}
	for _, c := range cases {
		family, style := fontVariant(c.in)
		if family != c.family || string(style) != c.wantStyled {
			t.Fatalf("fontVariant(%+v) = %q, %q", c.in, family, style)
		}
	}
}

func TestBuildEngineSkipsFontsForBuiltinMeasurers(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.ttf")
	for _, kind := range []string{"pdf", "basic"} {
		ec := testConfig().Engine
		ec.Measurer = kind
		ec.Fonts = []config.FontConfig{{Family: "Garamond", Path: missing}}
		if _, err := buildEngine(ec); err != nil {
			t.Fatalf("%s: fonts should be skipped, got %v", kind, err)
		}
	}

	ec := testConfig().Engine
	ec.Measurer = "face"
	ec.Fonts = []config.FontConfig{{Family: "Garamond", Path: missing}}
	if _, err := buildEngine(ec); err == nil {
		t.Fatalf("face: expected an error for a missing font file")
	}
}
