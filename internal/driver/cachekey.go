package driver

import (
	"crypto/sha256"
	"fmt"

	"dropelab/internal/source"
	"dropelab/internal/version"
)

// cacheKey hashes the file content together with everything that changes
// the cached result.
func cacheKey(f *source.File, opts *Options) Digest {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s\x00%t\x00%d\x00", version.Version, diskCacheSchemaVersion, opts.Mode, opts.Simplify, opts.maxDiagnostics())
	_, _ = h.Write(f.Hash[:])
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
