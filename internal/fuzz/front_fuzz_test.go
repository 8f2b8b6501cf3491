package fuzztests

import (
	"strings"
	"testing"
	"time"

	"dropelab/internal/diag"
	"dropelab/internal/lexer"
	"dropelab/internal/mir"
	"dropelab/internal/parser"
	"dropelab/internal/source"
	"dropelab/internal/token"
)

const parseTimeout = 5 * time.Second

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.mir", clamp(input)))
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(64)}})
		for lx.Next().Kind != token.EOF {
		}
	})
}

// FuzzParserRoundTrip parses the input and, when it is accepted, checks
// that printing and reparsing reaches a fixed point.
func FuzzParserRoundTrip(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("fn f: oops\n"))
	f.Add([]byte("type T = struct { a: T }\n"))
	f.Add([]byte("fn f:\n  locals:\n    L0: ()\n  bb0:\n    drop (*L0 -> bb1\n"))
	f.Fuzz(func(t *testing.T, input []byte) {
		done := make(chan string, 1)
		go func() {
			done <- dumpOf(clamp(input))
		}()
		var first string
		select {
		case first = <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parser did not finish within %v", parseTimeout)
		}
		if first == "" {
			return
		}
		second := dumpOf([]byte(first))
		if second != first {
			t.Fatalf("round trip is not stable:\n--- first ---\n%s\n--- second ---\n%s", first, second)
		}
	})
}

// dumpOf returns the printed module, or "" when the input is rejected.
func dumpOf(input []byte) string {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("fuzz.mir", input))
	res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(128)}, MaxErrors: 128})
	if !res.OK() || len(res.Module.Funcs) == 0 {
		return ""
	}
	var sb strings.Builder
	if err := mir.Dump(&sb, res.Module); err != nil {
		return ""
	}
	return sb.String()
}
