package parser

import (
	"fmt"
	"strconv"
	"strings"

	"dropelab/internal/diag"
	"dropelab/internal/source"
	"dropelab/internal/token"
)

type countingReporter struct {
	next   diag.Reporter
	errors uint
}

func (r *countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev >= diag.SevError {
		r.errors++
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	p.lastSpan = tok.Span
	return tok
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if !p.at(k) {
		return token.Token{}, false
	}
	return p.advance(), true
}

// expect consumes a token of kind k or reports what was found instead.
func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if tok, ok := p.eat(k); ok {
		return tok, true
	}
	p.errUnexpected(what)
	return token.Token{}, false
}

func (p *Parser) errUnexpected(what string) {
	tok := p.lx.Peek()
	p.err(diag.SynUnexpectedToken, tok.Span, fmt.Sprintf("expected %s, found %s", what, describe(tok)))
}

func (p *Parser) err(code diag.Code, sp source.Span, msg string) {
	p.rep.Report(code, diag.SevError, sp, msg, nil)
}

func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.StringLit:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	default:
		return fmt.Sprintf("`%s`", tok.Kind)
	}
}

// numberedName splits names such as L3 or bb12 into their index.
func numberedName(text, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(text, prefix)
	if !ok || rest == "" || (len(rest) > 1 && rest[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func (p *Parser) parseUint32(tok token.Token) (uint32, bool) {
	n, err := strconv.ParseUint(tok.Text, 10, 32)
	if err != nil {
		p.err(diag.LexBadNumber, tok.Span, fmt.Sprintf("%q does not fit in 32 bits", tok.Text))
		return 0, false
	}
	return uint32(n), true
}
