package parser

import (
	"fmt"

	"dropelab/internal/diag"
	"dropelab/internal/mir"
	"dropelab/internal/token"
)

// parseFn parses a function header, its locals and its blocks.
func (p *Parser) parseFn() (*fnDecl, bool) {
	start := p.advance().Span // fn
	name := p.lx.Peek()
	if !name.IsName() {
		p.errUnexpected("function name")
		return nil, false
	}
	p.advance()
	if _, ok := p.expect(token.Colon, "`:`"); !ok {
		return nil, false
	}
	fn := &fnDecl{name: name}
	if _, ok := p.expect(token.KwLocals, "`locals`"); !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Colon, "`:`"); !ok {
		return nil, false
	}
	for p.atLocal() {
		l, ok := p.parseLocal()
		if !ok {
			return nil, false
		}
		if localIndex(l) != len(fn.locals) {
			p.err(diag.SynUnexpectedToken, l.tok.Span, fmt.Sprintf("locals must be declared in order, expected L%d", len(fn.locals)))
			return nil, false
		}
		fn.locals = append(fn.locals, l)
	}
	for p.atBlockHeader() {
		bb, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		fn.blocks = append(fn.blocks, bb)
	}
	if !p.at(token.EOF) && !p.at(token.KwFn) && !p.at(token.KwType) {
		p.errUnexpected("local, block or declaration")
		return nil, false
	}
	fn.span = p.spanFrom(start)
	return fn, true
}

func localIndex(l *localDecl) int {
	n, _ := numberedName(l.tok.Text, "L")
	return n
}

// parseLocal parses `Ln: T [arg] [name=x] [flag=PLACE]`.
func (p *Parser) parseLocal() (*localDecl, bool) {
	tok := p.advance()
	if _, ok := p.expect(token.Colon, "`:`"); !ok {
		return nil, false
	}
	ty, ok := p.parseType()
	if !ok {
		return nil, false
	}
	l := &localDecl{tok: tok, ty: ty}
	for {
		attr := p.lx.Peek()
		switch {
		case attr.Kind == token.KwArg:
			p.advance()
			l.arg = true
		case attr.Kind == token.Ident && attr.Text == "name":
			p.advance()
			if _, ok := p.expect(token.Assign, "`=`"); !ok {
				return nil, false
			}
			name := p.lx.Peek()
			if !name.IsName() {
				p.errUnexpected("local name")
				return nil, false
			}
			p.advance()
			l.name = name.Text
		case attr.Kind == token.Ident && attr.Text == "flag":
			p.advance()
			if _, ok := p.expect(token.Assign, "`=`"); !ok {
				return nil, false
			}
			pl, ok := p.parsePlace()
			if !ok {
				return nil, false
			}
			l.flag = &pl
		default:
			return l, true
		}
	}
}

func (p *Parser) parseBlock() (*blockDecl, bool) {
	ref, _ := p.parseBlockRef()
	bb := &blockDecl{ref: ref}
	if _, ok := p.eat(token.KwCleanup); ok {
		bb.cleanup = true
	}
	if _, ok := p.expect(token.Colon, "`:`"); !ok {
		return nil, false
	}
	for {
		tok := p.lx.Peek()
		switch {
		case tok.Kind == token.KwNop:
			p.advance()
			bb.stmts = append(bb.stmts, &stmtExpr{nop: true, span: tok.Span})
		case p.atTerminator():
			term, ok := p.parseTerm(nil)
			if !ok {
				return nil, false
			}
			bb.term = term
			return bb, true
		case p.atLocal() || tok.Kind == token.LParen:
			dst, ok := p.parsePlace()
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Assign, "`=`"); !ok {
				return nil, false
			}
			if p.at(token.KwCall) {
				term, ok := p.parseTerm(&dst)
				if !ok {
					return nil, false
				}
				bb.term = term
				return bb, true
			}
			src, ok := p.parseRValue()
			if !ok {
				return nil, false
			}
			bb.stmts = append(bb.stmts, &stmtExpr{dst: dst, src: src, span: p.spanFrom(tok.Span)})
		case p.atBlockHeader(), tok.Kind == token.KwFn, tok.Kind == token.KwType, tok.Kind == token.EOF:
			p.err(diag.SynMissingTerm, ref.tok.Span, fmt.Sprintf("block %s has no terminator", ref.tok.Text))
			return bb, true
		default:
			p.errUnexpected("statement or terminator")
			return nil, false
		}
	}
}

func (p *Parser) atTerminator() bool {
	switch p.lx.Peek().Kind {
	case token.KwGoto, token.KwIf, token.KwSwitchTag, token.KwReturn, token.KwResume,
		token.KwUnreachable, token.KwDrop, token.KwReplace, token.KwCall:
		return true
	default:
		return false
	}
}

func (p *Parser) parseRValue() (rvalueExpr, bool) {
	start := p.lx.Peek()
	switch {
	case p.atOperand():
		op, ok := p.parseOperand()
		if !ok {
			return rvalueExpr{}, false
		}
		return rvalueExpr{kind: mir.RValueUse, use: op, span: op.span}, true
	case start.Kind == token.Amp:
		p.advance()
		_, mutable := p.eat(token.KwMut)
		pl, ok := p.parsePlace()
		if !ok {
			return rvalueExpr{}, false
		}
		return rvalueExpr{kind: mir.RValueRef, ref: pl, mutable: mutable, span: p.spanFrom(start.Span)}, true
	case start.Kind == token.LBracket:
		p.advance()
		fields, ok := p.parseOperandList(token.RBracket, "`,` or `]`")
		if !ok {
			return rvalueExpr{}, false
		}
		return rvalueExpr{kind: mir.RValueAggregate, agg: mir.AggArray, fields: fields, span: p.spanFrom(start.Span)}, true
	case start.Kind == token.LParen:
		p.advance()
		return p.parseParenRValue(start)
	case start.Kind == token.Ident:
		p.advance()
		return p.parseNamedAggregate(start)
	default:
		p.errUnexpected("rvalue")
		return rvalueExpr{}, false
	}
}

// parseParenRValue handles `(a op b)` and the tuple forms `()`, `(a,)` and
// `(a, b, ...)`.
func (p *Parser) parseParenRValue(start token.Token) (rvalueExpr, bool) {
	if _, ok := p.eat(token.RParen); ok {
		return rvalueExpr{kind: mir.RValueAggregate, agg: mir.AggTuple, span: p.spanFrom(start.Span)}, true
	}
	first, ok := p.parseOperand()
	if !ok {
		return rvalueExpr{}, false
	}
	if opTok := p.lx.Peek(); opTok.IsBinOp() {
		p.advance()
		op, _ := mir.ParseBinOp(opTok.Kind.String())
		right, ok := p.parseOperand()
		if !ok {
			return rvalueExpr{}, false
		}
		if _, ok := p.expect(token.RParen, "`)`"); !ok {
			return rvalueExpr{}, false
		}
		return rvalueExpr{kind: mir.RValueBinaryOp, op: op, left: first, right: right, span: p.spanFrom(start.Span)}, true
	}
	fields := []operandExpr{first}
	if _, ok := p.eat(token.Comma); ok {
		rest, ok := p.parseOperandList(token.RParen, "`,` or `)`")
		if !ok {
			return rvalueExpr{}, false
		}
		fields = append(fields, rest...)
		return rvalueExpr{kind: mir.RValueAggregate, agg: mir.AggTuple, fields: fields, span: p.spanFrom(start.Span)}, true
	}
	if _, ok := p.expect(token.RParen, "binary operator, `,` or `)`"); !ok {
		return rvalueExpr{}, false
	}
	return rvalueExpr{kind: mir.RValueUse, use: first, span: p.spanFrom(start.Span)}, true
}

// parseNamedAggregate handles `Pair(a, b)`, `Opt::Some(a)` and `Opt::None`.
func (p *Parser) parseNamedAggregate(name token.Token) (rvalueExpr, bool) {
	rv := rvalueExpr{kind: mir.RValueAggregate, aggName: name}
	if _, ok := p.eat(token.ColonColon); ok {
		v, ok := p.parseVariantRef()
		if !ok {
			return rvalueExpr{}, false
		}
		rv.agg = mir.AggEnum
		rv.variant = v
		if _, ok := p.eat(token.LParen); ok {
			fields, ok := p.parseOperandList(token.RParen, "`,` or `)`")
			if !ok {
				return rvalueExpr{}, false
			}
			rv.fields = fields
		}
		rv.span = p.spanFrom(name.Span)
		return rv, true
	}
	if _, ok := p.expect(token.LParen, "`(` or `::`"); !ok {
		return rvalueExpr{}, false
	}
	fields, ok := p.parseOperandList(token.RParen, "`,` or `)`")
	if !ok {
		return rvalueExpr{}, false
	}
	rv.agg = mir.AggStruct
	rv.fields = fields
	rv.span = p.spanFrom(name.Span)
	return rv, true
}
