package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dropelab/internal/diag"
	"dropelab/internal/source"
)

func TestJSON(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("fn f:\n  locals:\n    L0: Foo\n")
	fileID := fs.AddVirtual("dir/test.mir", content)

	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.SynUnknownType, source.Span{File: fileID, Start: 24, End: 27}, "unknown type Foo")
	d = d.WithNote(source.Span{File: fileID, Start: 3, End: 4}, "in this function")
	bag.Add(d)
	bag.Add(diag.New(diag.SevWarning, diag.ElabUntrackedDrop, source.Span{File: fileID, Start: 0, End: 2}, "second"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var got DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	want := DiagnosticsOutput{
		Count: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "SYN2002",
			Message:  "unknown type Foo",
			Location: LocationJSON{File: "test.mir", StartByte: 24, EndByte: 27, StartLine: 3, StartCol: 9, EndLine: 3, EndCol: 12},
			Notes: []NoteJSON{{
				Message:  "in this function",
				Location: LocationJSON{File: "test.mir", StartByte: 3, EndByte: 4, StartLine: 1, StartCol: 4, EndLine: 1, EndCol: 5},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("JSON (-want +got):\n%s", diff)
	}
}

func TestJSONWithoutPositionsOrNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.mir", []byte("x"))
	bag := diag.NewBag(2)
	d := diag.New(diag.SevWarning, diag.ElabUntrackedDrop, source.Span{File: fileID, Start: 0, End: 1}, "w")
	bag.Add(d.WithNote(source.Span{File: fileID}, "n"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("unexpected output %+v", out)
	}
	if loc := out.Diagnostics[0].Location; loc.StartLine != 0 || loc.File != "a.mir" {
		t.Fatalf("location = %+v", loc)
	}
	if out.Diagnostics[0].Severity != "WARNING" || out.Diagnostics[0].Code != "ELB4002" {
		t.Fatalf("diagnostic = %+v", out.Diagnostics[0])
	}
}
