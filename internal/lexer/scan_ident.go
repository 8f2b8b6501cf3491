package lexer

import (
	"golang.org/x/text/unicode/norm"

	"dropelab/internal/diag"
	"dropelab/internal/token"
)

// scanIdentOrKeyword scans an identifier and checks it against the keyword
// table. Non-ASCII identifiers are NFC-normalized so that composed and
// decomposed spellings name the same thing.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	r, sz := lx.peekRune()
	switch {
	case sz == 0:
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start)}
	case r < utf8RuneSelf:
		lx.cursor.Bump()
	case isIdentStartRune(r):
		ascii = false
		lx.bumpRune()
	default:
		lx.bumpRune()
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}

	for {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r2, sz2 := lx.peekRune()
		if sz2 == 0 || !isIdentContinueRune(r2) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if !ascii {
		text = norm.NFC.String(text)
	}
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
