/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"godiagram/internal/journal"
	"godiagram/internal/library"
	"godiagram/internal/script"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// table writes left aligned columns sized to their widest cell.
func table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	line := func(cells []string, st lipgloss.Style) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = st.Width(widths[i]).Render(c)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(header, headerStyle)
	for _, r := range rows {
		line(r, lipgloss.NewStyle())
	}
}

func printTemplates(w io.Writer, ts []*library.Template) {
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		size := fmt.Sprintf("%dx%d", t.Width, t.Height)
		if t.IsLinear() {
			size = fmt.Sprintf("%d", t.Width)
		}
		rows = append(rows, []string{t.Name, t.DisplayTitle(), t.Category, t.ShapeType, size})
	}
	table(w, []string{"NAME", "TITLE", "CATEGORY", "TYPE", "SIZE"}, rows)
}

func printProblems(w io.Writer, ve *library.ValidationError) {
	fmt.Fprintln(w, failStyle.Render(ve.Path+": schema violations"))
	for _, p := range ve.Problems {
		fmt.Fprintln(w, "  -", p)
	}
}

func printJournal(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("journal is empty"))
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		ids := make([]string, len(e.ShapeIDs))
		for i, id := range e.ShapeIDs {
			ids[i] = fmt.Sprint(id)
		}
		rows = append(rows, []string{
			fmt.Sprint(e.ID),
			e.Time.Local().Format(time.DateTime),
			shortSession(e.Session),
			e.Diagram,
			e.Kind,
			e.Description,
			strings.Join(ids, ","),
		})
	}
	table(w, []string{"ID", "TIME", "SESSION", "DIAGRAM", "KIND", "COMMAND", "SHAPES"}, rows)
}

// shortSession keeps the leading block of a session id.
func shortSession(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func printReplay(w io.Writer, path string, res *script.Result, runErr error) {
	status := okStyle.Render("ok")
	if runErr != nil {
		status = failStyle.Render("FAILED")
	}
	fmt.Fprintf(w, "%s %s\n", status, path)
	fmt.Fprintf(w, "  steps %d, executed %d, canceled %d, errors %d, shapes %d\n",
		res.Steps, res.Executed, res.Canceled, len(res.Errors), res.Diagram.Len())
	for _, e := range res.Errors {
		fmt.Fprintln(w, dimStyle.Render("  "+e.Error()))
	}
	if runErr != nil {
		fmt.Fprintln(w, "  "+runErr.Error())
	}
}
