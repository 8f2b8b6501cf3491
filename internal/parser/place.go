package parser

import (
	"fmt"
	"strconv"

	"dropelab/internal/diag"
	"dropelab/internal/mir"
	"dropelab/internal/token"
)

func (p *Parser) parseLocalRef() (localRef, bool) {
	tok := p.lx.Peek()
	if tok.Kind == token.Ident {
		if n, ok := numberedName(tok.Text, "L"); ok {
			p.advance()
			return localRef{id: mir.LocalID(n), tok: tok}, true //nolint:gosec // bounded by numberedName
		}
	}
	p.errUnexpected("local such as L0")
	return localRef{}, false
}

func (p *Parser) atLocal() bool {
	tok := p.lx.Peek()
	if tok.Kind != token.Ident {
		return false
	}
	_, ok := numberedName(tok.Text, "L")
	return ok
}

func (p *Parser) parseBlockRef() (blockRef, bool) {
	tok := p.lx.Peek()
	if tok.Kind == token.Ident {
		if n, ok := numberedName(tok.Text, "bb"); ok {
			p.advance()
			return blockRef{id: mir.BlockID(n), tok: tok}, true //nolint:gosec // bounded by numberedName
		}
	}
	p.errUnexpected("block such as bb0")
	return noBlock, false
}

func (p *Parser) atBlockHeader() bool {
	tok := p.lx.Peek()
	if tok.Kind != token.Ident {
		return false
	}
	_, ok := numberedName(tok.Text, "bb")
	return ok
}

// parsePlace parses
//
//	L1  L1.name  L1.0  (*L1)  (L1 as Some)  (L1 as #1)  L1[L2]  L1[2 of 4]  L1[-1 of 4]
func (p *Parser) parsePlace() (placeExpr, bool) {
	start := p.lx.Peek().Span
	var pl placeExpr
	if _, ok := p.eat(token.LParen); ok {
		if _, deref := p.eat(token.Star); deref {
			inner, ok := p.parsePlace()
			if !ok {
				return placeExpr{}, false
			}
			if _, ok := p.expect(token.RParen, "`)`"); !ok {
				return placeExpr{}, false
			}
			pl = inner
			pl.projs = append(pl.projs, projExpr{kind: mir.PlaceProjDeref, span: p.spanFrom(start)})
		} else {
			inner, ok := p.parsePlace()
			if !ok {
				return placeExpr{}, false
			}
			if _, ok := p.expect(token.KwAs, "`as` or `)`"); !ok {
				return placeExpr{}, false
			}
			v, ok := p.parseVariantRef()
			if !ok {
				return placeExpr{}, false
			}
			if _, ok := p.expect(token.RParen, "`)`"); !ok {
				return placeExpr{}, false
			}
			pl = inner
			pl.projs = append(pl.projs, projExpr{kind: mir.PlaceProjDowncast, name: v.name, index: v.index, span: p.spanFrom(start)})
		}
	} else {
		local, ok := p.parseLocalRef()
		if !ok {
			return placeExpr{}, false
		}
		pl.local = local
	}

	for {
		switch {
		case p.at(token.Dot):
			p.advance()
			tok := p.lx.Peek()
			switch {
			case tok.Kind == token.IntLit:
				p.advance()
				idx, err := strconv.Atoi(tok.Text)
				if err != nil {
					p.err(diag.LexBadNumber, tok.Span, fmt.Sprintf("bad field index %q", tok.Text))
					return placeExpr{}, false
				}
				pl.projs = append(pl.projs, projExpr{kind: mir.PlaceProjField, index: idx, span: tok.Span})
			case tok.IsName():
				p.advance()
				pl.projs = append(pl.projs, projExpr{kind: mir.PlaceProjField, name: &tok, span: tok.Span})
			default:
				p.errUnexpected("field name or index")
				return placeExpr{}, false
			}
		case p.at(token.LBracket):
			proj, ok := p.parseIndexProj()
			if !ok {
				return placeExpr{}, false
			}
			pl.projs = append(pl.projs, proj)
		default:
			pl.span = p.spanFrom(start)
			return pl, true
		}
	}
}

func (p *Parser) parseIndexProj() (projExpr, bool) {
	start := p.advance().Span // [
	if p.atLocal() {
		local, _ := p.parseLocalRef()
		if _, ok := p.expect(token.RBracket, "`]`"); !ok {
			return projExpr{}, false
		}
		return projExpr{kind: mir.PlaceProjIndex, indexLocal: local, span: p.spanFrom(start)}, true
	}
	_, fromEnd := p.eat(token.Minus)
	offTok, ok := p.expect(token.IntLit, "index local or constant offset")
	if !ok {
		return projExpr{}, false
	}
	offset, ok := p.parseUint32(offTok)
	if !ok {
		return projExpr{}, false
	}
	if _, ok := p.expect(token.KwOf, "`of`"); !ok {
		return projExpr{}, false
	}
	lenTok, ok := p.expect(token.IntLit, "minimum length")
	if !ok {
		return projExpr{}, false
	}
	minLength, ok := p.parseUint32(lenTok)
	if !ok {
		return projExpr{}, false
	}
	if _, ok := p.expect(token.RBracket, "`]`"); !ok {
		return projExpr{}, false
	}
	return projExpr{
		kind:      mir.PlaceProjConstIndex,
		offset:    offset,
		minLength: minLength,
		fromEnd:   fromEnd,
		span:      p.spanFrom(start),
	}, true
}

func (p *Parser) parseVariantRef() (variantRef, bool) {
	tok := p.lx.Peek()
	if tok.Kind == token.Hash {
		p.advance()
		numTok, ok := p.expect(token.IntLit, "variant number")
		if !ok {
			return variantRef{}, false
		}
		n, err := strconv.Atoi(numTok.Text)
		if err != nil {
			p.err(diag.LexBadNumber, numTok.Span, fmt.Sprintf("bad variant number %q", numTok.Text))
			return variantRef{}, false
		}
		return variantRef{index: n, span: p.spanFrom(tok.Span)}, true
	}
	if !tok.IsName() {
		p.errUnexpected("variant name")
		return variantRef{}, false
	}
	p.advance()
	return variantRef{name: &tok, span: tok.Span}, true
}

func (p *Parser) atOperand() bool {
	switch p.lx.Peek().Kind {
	case token.KwConst, token.KwCopy, token.KwMove:
		return true
	default:
		return false
	}
}

func (p *Parser) parseOperand() (operandExpr, bool) {
	start := p.lx.Peek()
	switch start.Kind {
	case token.KwCopy, token.KwMove:
		p.advance()
		pl, ok := p.parsePlace()
		if !ok {
			return operandExpr{}, false
		}
		kind := mir.OperandCopy
		if start.Kind == token.KwMove {
			kind = mir.OperandMove
		}
		return operandExpr{kind: kind, place: pl, span: p.spanFrom(start.Span)}, true
	case token.KwConst:
		p.advance()
		c, ok := p.parseConst()
		if !ok {
			return operandExpr{}, false
		}
		return operandExpr{kind: mir.OperandConst, konst: c, span: p.spanFrom(start.Span)}, true
	default:
		p.errUnexpected("operand (`const`, `copy` or `move`)")
		return operandExpr{}, false
	}
}

func (p *Parser) parseConst() (mir.Const, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.LParen:
		p.advance()
		if _, ok := p.expect(token.RParen, "`)`"); !ok {
			return mir.Const{}, false
		}
		return mir.Const{Kind: mir.ConstUnit}, true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return mir.Const{Kind: mir.ConstBool, BoolValue: tok.Kind == token.KwTrue}, true
	case token.Minus, token.IntLit:
		text := ""
		if tok.Kind == token.Minus {
			p.advance()
			text = "-"
		}
		num, ok := p.expect(token.IntLit, "integer")
		if !ok {
			return mir.Const{}, false
		}
		v, err := strconv.ParseInt(text+num.Text, 10, 64)
		if err != nil {
			p.err(diag.LexBadNumber, p.spanFrom(tok.Span), fmt.Sprintf("integer %s%s out of range", text, num.Text))
			return mir.Const{}, false
		}
		return mir.Const{Kind: mir.ConstInt, IntValue: v}, true
	case token.StringLit:
		p.advance()
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			p.err(diag.LexUnterminatedString, tok.Span, "malformed string literal")
			return mir.Const{}, false
		}
		return mir.Const{Kind: mir.ConstString, StringValue: s}, true
	default:
		p.errUnexpected("constant")
		return mir.Const{}, false
	}
}

func (p *Parser) parseOperandList(closer token.Kind, what string) ([]operandExpr, bool) {
	var out []operandExpr
	for !p.at(closer) {
		op, ok := p.parseOperand()
		if !ok {
			return nil, false
		}
		out = append(out, op)
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(closer, what); !ok {
		return nil, false
	}
	return out, true
}
