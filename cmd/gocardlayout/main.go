/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gocardlayout/internal/config"
	"gocardlayout/internal/crash"
	applog "gocardlayout/internal/log"
	"gocardlayout/internal/version"
)

func usage(w io.Writer) {
	lines := []string{
		"gocardlayout - card text layout engine (v" + version.String() + ")",
		"",
		"Usage:",
		"  gocardlayout version",
		"  gocardlayout validate <layout.json>",
		"  gocardlayout text [flags] <text...>",
		"  gocardlayout render [flags] <layout.json> <records.json> <outdir>",
		"  gocardlayout patterns <file>",
		"  gocardlayout config [path|show|init]",
		"",
		"Run 'gocardlayout <command> -h' for command flags.",
	}
	for _, l := range lines {
		_, _ = fmt.Fprintln(w, l)
	}
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config problem, continuing with defaults where needed", slog.Any("err", cfgErr))
	}

	info := &crash.Info{Command: strings.Join(os.Args[1:], " ")}
	os.Exit(func() int {
		defer crash.Recover(info)
		return run(os.Args[1:], cfg, os.Stdout, os.Stderr, info)
	}())
}

// run dispatches one command and returns the process exit code: 0 on
// success, 1 on failure, 2 on usage errors.
func run(args []string, cfg config.AppConfig, stdout, stderr io.Writer, info *crash.Info) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	l := applog.WithComponent("cli")
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "--help", "-h":
		usage(stdout)
		return 0
	case "validate":
		err = cmdValidate(args[1:], stdout, info)
	case "text":
		err = cmdText(args[1:], cfg, stdout, stderr, info)
	case "render":
		err = cmdRender(args[1:], cfg, stdout, stderr, info)
	case "patterns":
		err = cmdPatterns(args[1:], stdout, info)
	case "config":
		err = cmdConfig(args[1:], cfg, stdout)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			if ue.msg != "" {
				_, _ = fmt.Fprintln(stderr, ue.msg)
			}
			return 2
		}
		l.Error("command failed", slog.String("command", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }
