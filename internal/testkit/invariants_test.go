package testkit_test

import (
	"path/filepath"
	"strings"
	"testing"

	"dropelab/internal/mir"
	"dropelab/internal/parser"
	"dropelab/internal/source"
	"dropelab/internal/testkit"
)

func TestParsedFixturesKeepSpans(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "*.mir"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			fs := source.NewFileSet()
			id, err := fs.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			file := fs.Get(id)
			res := parser.ParseFile(file, parser.Options{})
			if !res.OK() {
				t.Fatalf("parse failed with %d errors", res.Errors)
			}
			if err := testkit.CheckSpanInvariants(res.Module, file); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestCheckSpanInvariantsRejectsForeignSpans(t *testing.T) {
	fs := source.NewFileSet()
	src := "fn f:\n  locals:\n    L0: ()\n  bb0:\n    return\n"
	file := fs.Get(fs.AddVirtual("f.mir", []byte(src)))
	res := parser.ParseFile(file, parser.Options{})
	if !res.OK() {
		t.Fatalf("parse failed with %d errors", res.Errors)
	}
	res.Module.Funcs[0].Blocks[0].Term.Span = source.Span{}
	err := testkit.CheckSpanInvariants(res.Module, file)
	if err == nil || !strings.Contains(err.Error(), "bb0 terminator") {
		t.Fatalf("CheckSpanInvariants = %v", err)
	}

	if err := testkit.CheckSpanInvariants(&mir.Module{}, nil); err == nil {
		t.Fatal("nil file accepted")
	}
}
