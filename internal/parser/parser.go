package parser

import (
	"dropelab/internal/diag"
	"dropelab/internal/lexer"
	"dropelab/internal/mir"
	"dropelab/internal/source"
	"dropelab/internal/token"
	"dropelab/internal/types"
)

type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint
	// Types receives the declared types. A fresh interner is used when nil.
	Types *types.Interner
}

// Result is the outcome of parsing one file. Module is nil when any
// lexical, syntax or resolution error was reported.
type Result struct {
	Module *mir.Module
	Errors uint
}

func (r Result) OK() bool { return r.Errors == 0 && r.Module != nil }

type Parser struct {
	lx       *lexer.Lexer
	opts     Options
	rep      *countingReporter
	lastSpan source.Span
}

// ParseFile lexes, parses and resolves a textual MIR file.
func ParseFile(file *source.File, opts Options) Result {
	rep := &countingReporter{next: opts.Reporter}
	p := Parser{
		lx:   lexer.New(file, lexer.Options{Reporter: rep}),
		opts: opts,
		rep:  rep,
	}
	tree := p.parseFile()
	if rep.errors > 0 {
		return Result{Errors: rep.errors}
	}

	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	lw := lowerer{types: in, rep: rep}
	mod := lw.lowerFile(tree)
	if rep.errors > 0 {
		return Result{Errors: rep.errors}
	}
	return Result{Module: mod}
}

func (p *Parser) parseFile() *file {
	out := &file{}
	for !p.at(token.EOF) {
		if p.tooManyErrors() {
			break
		}
		switch p.lx.Peek().Kind {
		case token.KwType:
			if d, ok := p.parseTypeDecl(); ok {
				out.types = append(out.types, d)
				continue
			}
		case token.KwFn:
			if fn, ok := p.parseFn(); ok {
				out.funcs = append(out.funcs, fn)
				continue
			}
		default:
			p.errUnexpected("`type` or `fn`")
			p.advance()
		}
		p.resyncTop()
	}
	return out
}

// resyncTop skips to the next top-level declaration.
func (p *Parser) resyncTop() {
	for !p.at(token.EOF) && !p.at(token.KwType) && !p.at(token.KwFn) {
		p.advance()
	}
}

func (p *Parser) tooManyErrors() bool {
	return p.opts.MaxErrors > 0 && p.rep.errors >= p.opts.MaxErrors
}
