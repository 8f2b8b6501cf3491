package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dropelab/internal/diag"
	"dropelab/internal/driver"
	"dropelab/internal/elaborate"
)

const deadSrc = `fn dead:
  locals:
    L0: ()
    L1: string arg
    L2: string
  bb0:
    L2 = move L1
    drop L1 -> bb1 unwind bb2
  bb1:
    return
  bb2 cleanup:
    resume
`

// The drop in bb2 goes through a borrow, which the pass cannot track on
// the cleanup path.
const untrackedCleanupSrc = `fn untracked:
  locals:
    L0: ()
    L1: &string arg
  bb0:
    L0 = call f() -> bb1 unwind bb2
  bb1:
    return
  bb2 cleanup:
    drop (*L1) -> bb3
  bb3 cleanup:
    resume
`

func writeFiles(t *testing.T, files map[string]string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string, len(files))
	for name, src := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths[name] = p
	}
	return paths
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestRunElaborate(t *testing.T) {
	paths := writeFiles(t, map[string]string{"dead.mir": deadSrc})
	batch, err := driver.Run(context.Background(), []string{paths["dead.mir"]}, driver.Options{Mode: driver.ModeElaborate})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(batch.Files) != 1 {
		t.Fatalf("got %d results", len(batch.Files))
	}
	res := batch.Files[0]
	if res.Failed || res.Bag.Len() != 0 {
		t.Fatalf("unexpected failure: %v", codes(res.Bag))
	}
	if strings.Contains(res.Output, "drop L1") {
		t.Fatalf("dead drop survived:\n%s", res.Output)
	}
	if !strings.Contains(res.Output, "    L2 = move L1\n    goto bb1\n") {
		t.Fatalf("bb0 not rewritten to a goto:\n%s", res.Output)
	}
	want := elaborate.Stats{Markers: 1, Dead: 1, UnwindsPruned: 1}
	if diff := cmp.Diff(want, batch.Stats()); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	if batch.HasErrors() {
		t.Fatalf("HasErrors() = true")
	}
}

func TestRunDumpRoundTrips(t *testing.T) {
	paths := writeFiles(t, map[string]string{"dead.mir": deadSrc})
	batch, err := driver.Run(context.Background(), []string{paths["dead.mir"]}, driver.Options{Mode: driver.ModeDump})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff(deadSrc, batch.Files[0].Output); diff != "" {
		t.Fatalf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestRunClassify(t *testing.T) {
	paths := writeFiles(t, map[string]string{"dead.mir": deadSrc})
	batch, err := driver.Run(context.Background(), []string{paths["dead.mir"]}, driver.Options{Mode: driver.ModeClassify})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "fn dead:\n    bb0: drop L1 exact(mp1) dead\n"
	if diff := cmp.Diff(want, batch.Files[0].Output); diff != "" {
		t.Fatalf("classify mismatch (-want +got):\n%s", diff)
	}
}

func TestRunInvariantKeepsBody(t *testing.T) {
	paths := writeFiles(t, map[string]string{"bad.mir": untrackedCleanupSrc})
	batch, err := driver.Run(context.Background(), []string{paths["bad.mir"]}, driver.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := batch.Files[0]
	if !res.Failed || !batch.HasErrors() {
		t.Fatalf("invariant violation not reported as failure")
	}
	if diff := cmp.Diff([]string{"untracked"}, res.Aborted); diff != "" {
		t.Fatalf("aborted mismatch (-want +got):\n%s", diff)
	}
	found := false
	for _, c := range codes(res.Bag) {
		found = found || c == diag.ElabInvariant
	}
	if !found {
		t.Fatalf("codes = %v, want %v among them", codes(res.Bag), diag.ElabInvariant)
	}
	if !strings.Contains(res.Output, "drop (*L1) -> bb3") {
		t.Fatalf("original body not printed:\n%s", res.Output)
	}
}

func TestRunReportsUnreadableAndBadFiles(t *testing.T) {
	paths := writeFiles(t, map[string]string{"bad.mir": "fn f: oops\n"})
	missing := filepath.Join(t.TempDir(), "missing.mir")
	batch, err := driver.Run(context.Background(), []string{missing, paths["bad.mir"]}, driver.Options{Jobs: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := codes(batch.Files[0].Bag); !cmp.Equal(got, []diag.Code{diag.IOReadFailed}) {
		t.Fatalf("missing file codes = %v", got)
	}
	if batch.Files[0].Path != missing || !batch.Files[0].Failed {
		t.Fatalf("missing file result = %+v", batch.Files[0])
	}
	bad := batch.Files[1]
	if !bad.Failed || bad.Output != "" || !bad.Bag.HasErrors() {
		t.Fatalf("parse failure result = %+v", bad)
	}
	if f := batch.FileSet.Get(bad.FileID); f == nil || f.Path != paths["bad.mir"] {
		t.Fatalf("file id %d does not point at the input", bad.FileID)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []driver.Event
}

func (s *recordingSink) OnEvent(evt driver.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordingSink) statuses(file string) []driver.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []driver.Status
	for _, e := range s.events {
		if e.File == file {
			out = append(out, e.Status)
		}
	}
	return out
}

func TestRunUsesCache(t *testing.T) {
	paths := writeFiles(t, map[string]string{"dead.mir": deadSrc})
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	opts := driver.Options{Mode: driver.ModeElaborate, Cache: cache, Timings: true}

	first, err := driver.Run(context.Background(), []string{paths["dead.mir"]}, opts)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Files[0].Cached {
		t.Fatalf("first run hit the cache")
	}
	if len(first.Files[0].Timing.Phases) == 0 {
		t.Fatalf("timings missing")
	}

	sink := &recordingSink{}
	opts.Progress = sink
	second, err := driver.Run(context.Background(), []string{paths["dead.mir"]}, opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	got := second.Files[0]
	if !got.Cached {
		t.Fatalf("second run missed the cache")
	}
	if diff := cmp.Diff(first.Files[0].Output, got.Output); diff != "" {
		t.Fatalf("cached output mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first.Stats(), second.Stats()); diff != "" {
		t.Fatalf("cached stats mismatch (-want +got):\n%s", diff)
	}
	want := []driver.Status{driver.StatusQueued, driver.StatusCached}
	if diff := cmp.Diff(want, sink.statuses(paths["dead.mir"])); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	// A different mode is a different key.
	opts.Mode = driver.ModeDump
	third, err := driver.Run(context.Background(), []string{paths["dead.mir"]}, opts)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if third.Files[0].Cached {
		t.Fatalf("dump run reused the elaborate entry")
	}
}

func TestRunCanceled(t *testing.T) {
	paths := writeFiles(t, map[string]string{"dead.mir": deadSrc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.Run(ctx, []string{paths["dead.mir"]}, driver.Options{}); err == nil {
		t.Fatalf("Run on a canceled context succeeded")
	}
}
