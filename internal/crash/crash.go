/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns top-level panics into a report file, a diagram
// snapshot and a non-zero exit.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"godiagram/internal/diagram"
	"godiagram/internal/export"
	applog "godiagram/internal/log"
	"godiagram/internal/version"
)

// ReportDirName is the folder below Session.Dir receiving crash artifacts.
const ReportDirName = "crash"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Session describes what was open when the panic happened. All fields are optional.
type Session struct {
	// Dir is the working directory of the session; reports go to Dir/crash.
	Dir string
	// Diagram is snapshotted as PNG next to the report.
	Diagram *diagram.Diagram
	// Source names the script or file being processed.
	Source string
}

// Recover captures a panic, logs it with the stack, writes a crash report
// plus a snapshot of the diagram and exits with code 2.
//
// Usage: defer crash.Recover(s)
func Recover(s *Session) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(s, r, stack)
		if err != nil {
			l.Error("crash report failed", slog.Any("err", err))
		}
		if s != nil && s.Diagram != nil {
			if path, err := writeSnapshot(reportPath, s.Diagram); err != nil {
				l.Error("crash snapshot failed", slog.Any("err", err))
			} else {
				l.Info("crash snapshot written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func reportDir(s *Session) string {
	if s == nil || s.Dir == "" {
		return os.TempDir()
	}
	dir := filepath.Join(s.Dir, ReportDirName)
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

func writeReport(s *Session, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(s), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "GoDiagram Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if s != nil {
		if s.Source != "" {
			_, _ = fmt.Fprintf(&buf, "Source: %s\n", s.Source)
		}
		if d := s.Diagram; d != nil {
			_, _ = fmt.Fprintf(&buf, "Diagram: %s (%d shapes)\n", d.Name, d.Len())
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}

// writeSnapshot stores a PNG of d next to the report. A panic while
// rendering is reported as an error so the crash path always finishes.
func writeSnapshot(reportPath string, d *diagram.Diagram) (path string, err error) {
	path = strings.TrimSuffix(reportPath, ".log") + ".png"
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render snapshot: %v", r)
		}
	}()
	return path, export.PNGFile(d, path, export.Options{Title: d.Name})
}
