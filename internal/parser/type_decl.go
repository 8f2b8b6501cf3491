package parser

import (
	"dropelab/internal/token"
)

// parseTypeDecl parses
//
//	type NAME = struct [drop] { field: T, ... }
//	type NAME = enum { Variant, Variant(T, ...), ... }
func (p *Parser) parseTypeDecl() (*typeDecl, bool) {
	start := p.advance().Span // type
	name, ok := p.expect(token.Ident, "type name")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Assign, "`=`"); !ok {
		return nil, false
	}
	d := &typeDecl{name: name}
	switch {
	case p.at(token.KwStruct):
		p.advance()
		if _, ok := p.eat(token.KwDrop); ok {
			d.hasDrop = true
		}
		if !p.parseFields(d) {
			return nil, false
		}
	case p.at(token.KwEnum):
		p.advance()
		d.enum = true
		if !p.parseVariants(d) {
			return nil, false
		}
	default:
		p.errUnexpected("`struct` or `enum`")
		return nil, false
	}
	d.span = p.spanFrom(start)
	return d, true
}

func (p *Parser) parseFields(d *typeDecl) bool {
	if _, ok := p.expect(token.LBrace, "`{`"); !ok {
		return false
	}
	for !p.at(token.RBrace) {
		name := p.lx.Peek()
		if !name.IsName() {
			p.errUnexpected("field name")
			return false
		}
		p.advance()
		if _, ok := p.expect(token.Colon, "`:`"); !ok {
			return false
		}
		ty, ok := p.parseType()
		if !ok {
			return false
		}
		d.fields = append(d.fields, fieldDecl{name: name, ty: ty})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	_, ok := p.expect(token.RBrace, "`,` or `}`")
	return ok
}

func (p *Parser) parseVariants(d *typeDecl) bool {
	if _, ok := p.expect(token.LBrace, "`{`"); !ok {
		return false
	}
	for !p.at(token.RBrace) {
		name := p.lx.Peek()
		if !name.IsName() {
			p.errUnexpected("variant name")
			return false
		}
		p.advance()
		v := variantDecl{name: name}
		if _, ok := p.eat(token.LParen); ok {
			for !p.at(token.RParen) {
				ty, ok := p.parseType()
				if !ok {
					return false
				}
				v.fields = append(v.fields, ty)
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, ok := p.expect(token.RParen, "`,` or `)`"); !ok {
				return false
			}
		}
		d.variants = append(d.variants, v)
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	_, ok := p.expect(token.RBrace, "`,` or `}`")
	return ok
}

// parseType parses a type expression. Named types, including the builtins,
// stay unresolved until lowering.
func (p *Parser) parseType() (*typeExpr, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return &typeExpr{kind: typeNamed, name: tok, span: tok.Span}, true
	case token.Star:
		p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &typeExpr{kind: typePointer, elems: []*typeExpr{elem}, span: p.spanFrom(tok.Span)}, true
	case token.KwOwn:
		p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &typeExpr{kind: typeOwn, elems: []*typeExpr{elem}, span: p.spanFrom(tok.Span)}, true
	case token.Amp:
		p.advance()
		return p.parseRefType(tok)
	case token.AndAnd:
		// `&&T` is a reference to a reference.
		p.advance()
		inner, ok := p.parseRefType(tok)
		if !ok {
			return nil, false
		}
		return &typeExpr{kind: typeRef, elems: []*typeExpr{inner}, span: p.spanFrom(tok.Span)}, true
	case token.LBracket:
		p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Semicolon, "`;`"); !ok {
			return nil, false
		}
		countTok, ok := p.expect(token.IntLit, "array length")
		if !ok {
			return nil, false
		}
		count, ok := p.parseUint32(countTok)
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RBracket, "`]`"); !ok {
			return nil, false
		}
		return &typeExpr{kind: typeArray, elems: []*typeExpr{elem}, count: count, span: p.spanFrom(tok.Span)}, true
	case token.LParen:
		p.advance()
		return p.parseTupleType(tok)
	default:
		p.errUnexpected("type")
		return nil, false
	}
}

func (p *Parser) parseRefType(start token.Token) (*typeExpr, bool) {
	_, mutable := p.eat(token.KwMut)
	elem, ok := p.parseType()
	if !ok {
		return nil, false
	}
	return &typeExpr{kind: typeRef, mutable: mutable, elems: []*typeExpr{elem}, span: p.spanFrom(start.Span)}, true
}

// parseTupleType handles (), (T,), (T) and (A, B, ...). A single element
// without a trailing comma is just a parenthesized type.
func (p *Parser) parseTupleType(start token.Token) (*typeExpr, bool) {
	var elems []*typeExpr
	trailingComma := false
	for !p.at(token.RParen) {
		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}
		elems = append(elems, ty)
		_, trailingComma = p.eat(token.Comma)
		if !trailingComma {
			break
		}
	}
	if _, ok := p.expect(token.RParen, "`,` or `)`"); !ok {
		return nil, false
	}
	if len(elems) == 1 && !trailingComma {
		return elems[0], true
	}
	return &typeExpr{kind: typeTuple, elems: elems, span: p.spanFrom(start.Span)}, true
}
