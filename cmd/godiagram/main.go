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
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"godiagram/internal/command"
	"godiagram/internal/config"
	"godiagram/internal/crash"
	"godiagram/internal/diagram"
	"godiagram/internal/display"
	"godiagram/internal/export"
	"godiagram/internal/journal"
	"godiagram/internal/library"
	applog "godiagram/internal/log"
	"godiagram/internal/script"
	"godiagram/internal/security"
	"godiagram/internal/tui"
	"godiagram/internal/ui"
	"godiagram/internal/version"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "GoDiagram: interactive diagram tool engine")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  godiagram version|-v|--version                 Show version")
	fmt.Fprintln(w, "  godiagram replay <script.yaml> [-png f] [-pdf f] [-svg f] [-scale n] [-crop]")
	fmt.Fprintln(w, "                                                 Replay a gesture script and export the result")
	fmt.Fprintln(w, "  godiagram templates [file]                     List templates; validates and adds file")
	fmt.Fprintln(w, "  godiagram journal [n]                          Show the last n journal entries")
	fmt.Fprintln(w, "  godiagram tui [script.yaml]                    Edit in the terminal")
	fmt.Fprintln(w, "  godiagram ui [script.yaml]                     Launch desktop UI (build with -tags fyne for full UI)")
}

// app carries what every command needs. Output goes to out so tests can
// capture it.
type app struct {
	cfg      config.AppConfig
	password string
	out      io.Writer
	log      *slog.Logger
	session  *crash.Session
}

func main() {
	cfg, pw, err := config.Load()
	opts := cfg.LogOptions()
	if len(os.Args) > 1 && os.Args[1] == "tui" {
		// the terminal belongs to the editor
		opts.NoConsole = true
	}
	applog.Init(opts)
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	wd, _ := os.Getwd()
	a := &app{cfg: cfg, password: pw, out: os.Stdout, log: l, session: &crash.Session{Dir: wd}}
	code := a.run(ctx, os.Args[1:])
	stop()
	_ = applog.Close()
	os.Exit(code)
}

// run dispatches one command and returns the exit code.
func (a *app) run(ctx context.Context, args []string) int {
	defer crash.Recover(a.session)
	a.log.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(a.out)
		return 0
	}
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(a.out, "GoDiagram")
		fmt.Fprintln(a.out, version.String())
		return 0
	case "replay":
		err = a.replay(ctx, args[1:])
	case "templates":
		err = a.templates(args[1:])
	case "journal":
		err = a.showJournal(ctx, args[1:])
	case "tui", "ui":
		err = a.edit(ctx, args[0], args[1:])
	case "help", "-h", "--help":
		usage(a.out)
		return 0
	default:
		fmt.Fprintf(a.out, "unknown command %q\n", args[0])
		usage(a.out)
		return 2
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(a.out, ue.msg)
		usage(a.out)
		return 2
	}
	if err != nil {
		a.log.Error("command failed", slog.String("command", args[0]), slog.Any("err", err))
		fmt.Fprintln(a.out, "Error:", err)
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// registry returns the built-in templates plus the configured library file.
func (a *app) registry() (*library.Registry, error) {
	reg := library.Builtin()
	if f := a.cfg.Library.File; f != "" {
		if err := reg.LoadFile(f); err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
	}
	return reg, nil
}

// openJournal returns nil when no journal is configured.
func (a *app) openJournal(ctx context.Context) (*journal.Journal, error) {
	j := a.cfg.Journal
	if j.Driver == "" && j.DSN == "" {
		return nil, nil
	}
	dsn, err := j.DataSourceName(a.password)
	if err != nil {
		return nil, err
	}
	return journal.Open(ctx, j.Driver, dsn)
}

func (a *app) runner(reg *library.Registry, scriptPath string) (*script.Runner, error) {
	r := script.NewRunner(a.cfg.ToolSettings(), a.cfg.SnapGrid())
	r.Library = reg
	role, err := security.ParseRole(a.cfg.Security.Role)
	if err != nil {
		return nil, fmt.Errorf("config: security.role: %w", err)
	}
	r.Role = role
	r.Dir = filepath.Dir(scriptPath)
	return r, nil
}

// splitArgs separates a leading positional argument from the flags, so both
// "replay s.yaml -png x" and "replay -png x s.yaml" work.
func splitArgs(fs *flag.FlagSet, args []string) (string, error) {
	var pos string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		pos, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", usageError{err.Error()}
	}
	if pos == "" {
		pos = fs.Arg(0)
	}
	return pos, nil
}

func (a *app) replay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pngPath := fs.String("png", "", "write a PNG snapshot")
	pdfPath := fs.String("pdf", "", "write a PDF snapshot")
	svgPath := fs.String("svg", "", "write an SVG snapshot")
	scale := fs.Float64("scale", 1, "snapshot scale")
	crop := fs.Bool("crop", false, "crop snapshots to the shapes")
	path, err := splitArgs(fs, args)
	if err != nil {
		return err
	}
	if path == "" {
		return usageError{"replay requires <script.yaml>"}
	}

	s, err := script.ReadFile(path)
	if err != nil {
		return err
	}
	a.session.Source = path
	reg, err := a.registry()
	if err != nil {
		return err
	}
	r, err := a.runner(reg, path)
	if err != nil {
		return err
	}
	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer func() { _ = j.Close() }()
		r.Listeners = append(r.Listeners, j.Listener(s.Diagram.Name))
	}

	a.log.Info("replay", slog.String("script", path), slog.Int("steps", len(s.Steps)))
	res, runErr := r.Run(ctx, s)
	if res == nil {
		return runErr
	}
	a.session.Diagram = res.Diagram
	printReplay(a.out, path, res, runErr)

	opt := export.Options{Scale: *scale, Crop: *crop, Padding: 10, Title: res.Diagram.Name}
	for _, out := range []string{*pngPath, *pdfPath, *svgPath} {
		if out == "" {
			continue
		}
		if err := export.WriteFile(res.Diagram, out, opt); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Wrote", out)
	}
	return runErr
}

func (a *app) templates(args []string) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		if err := reg.LoadFile(args[0]); err != nil {
			var ve *library.ValidationError
			if errors.As(err, &ve) {
				printProblems(a.out, ve)
			}
			return err
		}
		fmt.Fprintf(a.out, "%s is valid\n", args[0])
	}
	printTemplates(a.out, reg.Templates())
	return nil
}

func (a *app) showJournal(ctx context.Context, args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return usageError{fmt.Sprintf("journal: invalid count %q", args[0])}
		}
		limit = n
	}
	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	if j == nil {
		return errors.New("no journal configured (set journal.driver and journal.dsn)")
	}
	defer func() { _ = j.Close() }()
	entries, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printJournal(a.out, entries)
	return nil
}

// edit hosts a presenter in the terminal or desktop UI. A script argument
// is replayed first and its result edited.
func (a *app) edit(ctx context.Context, host string, args []string) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}
	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer func() { _ = j.Close() }()
	}

	var p *display.Presenter
	if len(args) > 0 {
		path := args[0]
		s, err := script.ReadFile(path)
		if err != nil {
			return err
		}
		a.session.Source = path
		r, err := a.runner(reg, path)
		if err != nil {
			return err
		}
		if j != nil {
			r.Listeners = append(r.Listeners, j.Listener(s.Diagram.Name))
		}
		res, err := r.Run(ctx, s)
		if res == nil {
			return err
		}
		if err != nil {
			a.log.Warn("script stopped early", slog.Any("err", err))
		}
		p = res.Presenter
	} else {
		sec, err := a.cfg.SecurityManager()
		if err != nil {
			return err
		}
		d := diagram.New("untitled", defaultWidth, defaultHeight)
		exec := command.NewExecutor(sec, nil)
		if j != nil {
			exec.AddListener(j.Listener(d.Name))
		}
		p = display.New(d, exec, sec, a.cfg.SnapGrid())
	}
	a.session.Diagram = p.Diagram()

	if host == "tui" {
		return tui.Run(p, reg, a.cfg.ToolSettings())
	}
	return ui.Run(p, reg, a.cfg.ToolSettings())
}
