package token

import (
	"dropelab/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsKeyword reports whether the token is a keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFn && t.Kind <= KwFalse
}

// IsName reports whether the token can name a field or variant: an
// identifier or a keyword spelled as one.
func (t Token) IsName() bool {
	return t.Kind == Ident || t.IsKeyword()
}

// IsBinOp reports whether the token is a binary operator of the rvalue
// grammar.
func (t Token) IsBinOp() bool {
	switch t.Kind {
	case Plus, Minus, Star, EqEq, BangEq, Lt, LtEq, Gt, GtEq, AndAnd, OrOr:
		return true
	default:
		return false
	}
}
