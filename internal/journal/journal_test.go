/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"godiagram/internal/command"
	"godiagram/internal/diagram"
	"godiagram/internal/geometry"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "state", "journal.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecentNewestFirst(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, desc := range []string{"first", "second", "third"} {
		e := Entry{Time: at.Add(time.Duration(i) * time.Second), Diagram: "flow", Kind: "executed", Description: desc, Permission: "layout", ShapeIDs: []int{i + 1, 7}}
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("record %s: %v", desc, err)
		}
	}
	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].Description != "third" || got[1].Description != "second" {
		t.Fatalf("recent = %+v, want third, second", got)
	}
	if !got[0].Time.Equal(at.Add(2*time.Second)) {
		t.Fatalf("time = %v", got[0].Time)
	}
	if len(got[0].ShapeIDs) != 2 || got[0].ShapeIDs[0] != 3 || got[0].ShapeIDs[1] != 7 {
		t.Fatalf("shape ids = %v, want [3 7]", got[0].ShapeIDs)
	}
	if got[0].Session != j.Session() || got[1].Session != j.Session() {
		t.Fatalf("session = %q, want %q", got[0].Session, j.Session())
	}
	if none, err := j.Recent(ctx, 0); err != nil || none != nil {
		t.Fatalf("Recent(0) = %v, %v", none, err)
	}
}

func TestListenerRecordsExecutorEvents(t *testing.T) {
	j := openTemp(t)
	d := diagram.New("flow", 200, 200)
	box := diagram.NewPlanarShape(diagram.RectangleType, geometry.Pt(50, 50), 20, 20)
	d.AddTopMost(box)

	ex := command.NewExecutor(nil, nil)
	ex.AddListener(j.Listener(d.Name))
	if err := ex.Execute(command.NewMoveShapes([]diagram.Shape{box}, 10, 0)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := ex.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if err := ex.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}

	got, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	wantKinds := []string{"redone", "undone", "executed"}
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d entries, want %d", len(got), len(wantKinds))
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Fatalf("entry %d kind = %q, want %q", i, got[i].Kind, k)
		}
		if got[i].Diagram != "flow" || got[i].Permission != "layout" || got[i].Description != "Move 1 shape(s) by (10, 0)" {
			t.Fatalf("entry %d = %+v", i, got[i])
		}
		if len(got[i].ShapeIDs) != 1 || got[i].ShapeIDs[0] != box.ID() {
			t.Fatalf("entry %d shapes = %v, want [%d]", i, got[i].ShapeIDs, box.ID())
		}
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	ctx := context.Background()
	j, err := Open(ctx, "", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.Record(ctx, Entry{Diagram: "flow", Kind: "executed", Description: "x", Permission: "insert"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	first := j.Session()
	_ = j.Close()

	j, err = Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = j.Close() }()
	got, err := j.Recent(ctx, 5)
	if err != nil || len(got) != 1 || got[0].ShapeIDs != nil {
		t.Fatalf("after reopen got %+v, %v", got, err)
	}
	if got[0].Session != first || j.Session() == first {
		t.Fatalf("sessions: entry %q, first %q, now %q", got[0].Session, first, j.Session())
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(context.Background(), DriverSQLite, " "); err == nil {
		t.Fatalf("expected empty dsn error")
	}
}

func TestRebindForPostgres(t *testing.T) {
	pg := &Journal{driver: DriverPostgres}
	if got := pg.rebind("VALUES(?, ?, ?)"); got != "VALUES($1, $2, $3)" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &Journal{driver: DriverSQLite}
	if got := lite.rebind("LIMIT ?"); got != "LIMIT ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}
