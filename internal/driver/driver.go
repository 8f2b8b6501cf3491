package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dropelab/internal/diag"
	"dropelab/internal/elaborate"
	"dropelab/internal/observ"
	"dropelab/internal/source"
	"dropelab/internal/trace"
)

// FileResult is the outcome for one input file.
type FileResult struct {
	Path   string
	FileID source.FileID
	// Output is the rendered result for the selected mode; empty when the
	// file did not parse.
	Output string
	Bag    *diag.Bag
	Stats  elaborate.Stats
	Timing observ.Report
	Cached bool
	Failed bool
	// Aborted names the functions whose elaboration hit an invariant
	// violation. Their bodies are printed unchanged.
	Aborted []string
}

// Batch is the result of one driver run, in input order.
type Batch struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// Stats sums the pass statistics of all files.
func (b *Batch) Stats() elaborate.Stats {
	var total elaborate.Stats
	for i := range b.Files {
		total.Add(b.Files[i].Stats)
	}
	return total
}

func (b *Batch) HasErrors() bool {
	for i := range b.Files {
		if b.Files[i].Failed || b.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Run processes every path with at most opts.Jobs files in flight.
// Per-file problems end up in the file's diagnostics; the returned error
// is reserved for cancellation.
func Run(ctx context.Context, paths []string, opts Options) (*Batch, error) {
	if opts.Tracer != nil {
		ctx = trace.WithTracer(ctx, opts.Tracer)
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "run", trace.CurrentSpan(ctx)).
		WithExtra("mode", opts.Mode.String()).
		WithExtra("files", fmt.Sprint(len(paths)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	// FileSet is not safe for concurrent writes, so everything is loaded
	// up front.
	fileSet := source.NewFileSet()
	ids := make([]source.FileID, len(paths))
	loadErrs := make([]error, len(paths))
	for i, path := range paths {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		id, err := fileSet.Load(path)
		if err != nil {
			id = fileSet.AddVirtual(path, nil)
			loadErrs[i] = err
		}
		ids[i] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := fileSet.Get(ids[i])
			if loadErrs[i] != nil {
				bag := diag.NewBag(opts.maxDiagnostics())
				bag.Add(diag.NewError(diag.IOReadFailed, source.Span{File: file.ID},
					fmt.Sprintf("failed to read %s: %v", path, loadErrs[i])))
				results[i] = FileResult{Path: path, FileID: file.ID, Bag: bag, Failed: true}
				emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: loadErrs[i]})
				return nil
			}
			results[i] = processFile(gctx, file, &opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	emit(opts.Progress, Event{Stage: StageRender, Status: StatusDone})
	return &Batch{FileSet: fileSet, Files: results}, nil
}
