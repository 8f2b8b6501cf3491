package parser

import (
	"dropelab/internal/mir"
	"dropelab/internal/token"
)

// parseTerm parses a block terminator. dst is set when a call result was
// already parsed as `PLACE =`.
func (p *Parser) parseTerm(dst *placeExpr) (*termExpr, bool) {
	start := p.lx.Peek()
	if dst != nil {
		start.Span = dst.span
	}
	t := &termExpr{target: noBlock, unwind: noBlock, deflt: noBlock, els: noBlock}
	var ok bool
	switch p.advance().Kind {
	case token.KwGoto:
		t.kind = mir.TermGoto
		t.target, ok = p.parseBlockRef()
	case token.KwIf:
		t.kind = mir.TermIf
		ok = p.parseIf(t)
	case token.KwSwitchTag:
		t.kind = mir.TermSwitchTag
		ok = p.parseSwitchTag(t)
	case token.KwReturn:
		t.kind, ok = mir.TermReturn, true
	case token.KwResume:
		t.kind, ok = mir.TermResume, true
	case token.KwUnreachable:
		t.kind, ok = mir.TermUnreachable, true
	case token.KwDrop:
		t.kind = mir.TermDrop
		if t.place, ok = p.parsePlace(); ok {
			ok = p.parseTargets(t, true)
		}
	case token.KwReplace:
		t.kind = mir.TermDropAndReplace
		ok = p.parseReplace(t)
	case token.KwCall:
		t.kind = mir.TermCall
		if dst != nil {
			t.hasDst = true
			t.dst = *dst
		}
		ok = p.parseCall(t)
	}
	if !ok {
		return nil, false
	}
	t.span = p.spanFrom(start.Span)
	return t, true
}

func (p *Parser) parseIf(t *termExpr) bool {
	var ok bool
	if t.cond, ok = p.parseOperand(); !ok {
		return false
	}
	if _, ok = p.expect(token.KwThen, "`then`"); !ok {
		return false
	}
	if t.target, ok = p.parseBlockRef(); !ok {
		return false
	}
	if _, ok = p.expect(token.KwElse, "`else`"); !ok {
		return false
	}
	t.els, ok = p.parseBlockRef()
	return ok
}

// parseSwitchTag parses `switch_tag P { V -> bbN; ... default -> bbM; }`.
func (p *Parser) parseSwitchTag(t *termExpr) bool {
	var ok bool
	if t.place, ok = p.parsePlace(); !ok {
		return false
	}
	if _, ok = p.expect(token.LBrace, "`{`"); !ok {
		return false
	}
	for !p.at(token.RBrace) {
		if _, isDefault := p.eat(token.KwDefault); isDefault {
			if _, ok = p.expect(token.Arrow, "`->`"); !ok {
				return false
			}
			if t.deflt, ok = p.parseBlockRef(); !ok {
				return false
			}
		} else {
			var c switchCase
			if c.variant, ok = p.parseVariantRef(); !ok {
				return false
			}
			if _, ok = p.expect(token.Arrow, "`->`"); !ok {
				return false
			}
			if c.target, ok = p.parseBlockRef(); !ok {
				return false
			}
			t.cases = append(t.cases, c)
		}
		if _, ok = p.expect(token.Semicolon, "`;`"); !ok {
			return false
		}
	}
	p.advance() // }
	return true
}

func (p *Parser) parseReplace(t *termExpr) bool {
	var ok bool
	if t.place, ok = p.parsePlace(); !ok {
		return false
	}
	if _, ok = p.expect(token.LArrow, "`<-`"); !ok {
		return false
	}
	if t.value, ok = p.parseOperand(); !ok {
		return false
	}
	return p.parseTargets(t, true)
}

func (p *Parser) parseCall(t *termExpr) bool {
	name := p.lx.Peek()
	if !name.IsName() {
		p.errUnexpected("callee name")
		return false
	}
	p.advance()
	t.callee = name.Text
	if _, ok := p.expect(token.LParen, "`(`"); !ok {
		return false
	}
	args, ok := p.parseOperandList(token.RParen, "`,` or `)`")
	if !ok {
		return false
	}
	t.args = args
	return p.parseTargets(t, false)
}

// parseTargets parses `-> bbN` followed by an optional `unwind bbM`. The
// return edge is optional for calls, which may diverge.
func (p *Parser) parseTargets(t *termExpr, needTarget bool) bool {
	var ok bool
	if needTarget || p.at(token.Arrow) {
		if _, ok = p.expect(token.Arrow, "`->`"); !ok {
			return false
		}
		if t.target, ok = p.parseBlockRef(); !ok {
			return false
		}
	}
	if _, hasUnwind := p.eat(token.KwUnwind); hasUnwind {
		if t.unwind, ok = p.parseBlockRef(); !ok {
			return false
		}
	}
	return true
}
