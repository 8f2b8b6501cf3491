package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxFuzzInput = 64 << 10

func addCorpusSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".mir" {
			return nil
		}
		// #nosec G304 -- path comes from the repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clamp(src))
		return nil
	})
	f.Add([]byte{})
	f.Add([]byte("fn f:\n  locals:\n    L0: ()\n  bb0:\n    return\n"))
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
