package parser

import (
	"dropelab/internal/mir"
	"dropelab/internal/source"
	"dropelab/internal/token"
)

// The syntax tree keeps names unresolved. Field and variant names can only
// be resolved against place types, which need every type declaration of
// the file, so lowering runs after the whole file is parsed.

type file struct {
	types []*typeDecl
	funcs []*fnDecl
}

type typeExprKind uint8

const (
	typeNamed typeExprKind = iota
	typeTuple              // () is the empty tuple, i.e. unit
	typeArray
	typePointer
	typeRef
	typeOwn
)

type typeExpr struct {
	kind    typeExprKind
	name    token.Token
	elems   []*typeExpr
	count   uint32
	mutable bool
	span    source.Span
}

type typeDecl struct {
	name     token.Token
	enum     bool
	hasDrop  bool
	fields   []fieldDecl
	variants []variantDecl
	span     source.Span
}

type fieldDecl struct {
	name token.Token
	ty   *typeExpr
}

type variantDecl struct {
	name   token.Token
	fields []*typeExpr
}

type fnDecl struct {
	name   token.Token
	locals []*localDecl
	blocks []*blockDecl
	span   source.Span
}

type localDecl struct {
	tok  token.Token
	ty   *typeExpr
	arg  bool
	name string
	flag *placeExpr
}

type blockRef struct {
	id  mir.BlockID
	tok token.Token
}

var noBlock = blockRef{id: mir.NoBlockID}

type blockDecl struct {
	ref     blockRef
	cleanup bool
	stmts   []*stmtExpr
	term    *termExpr
}

type localRef struct {
	id  mir.LocalID
	tok token.Token
}

type projExpr struct {
	kind mir.PlaceProjKind
	// name is set for named fields and variants; otherwise index holds the
	// field position or variant number.
	name       *token.Token
	index      int
	indexLocal localRef
	offset     uint32
	minLength  uint32
	fromEnd    bool
	span       source.Span
}

type placeExpr struct {
	local localRef
	projs []projExpr
	span  source.Span
}

type operandExpr struct {
	kind  mir.OperandKind
	place placeExpr
	konst mir.Const
	span  source.Span
}

type variantRef struct {
	name  *token.Token
	index int
	span  source.Span
}

type rvalueExpr struct {
	kind    mir.RValueKind
	use     operandExpr
	op      mir.BinOp
	left    operandExpr
	right   operandExpr
	agg     mir.AggKind
	aggName token.Token
	variant variantRef
	fields  []operandExpr
	ref     placeExpr
	mutable bool
	span    source.Span
}

type stmtExpr struct {
	nop  bool
	dst  placeExpr
	src  rvalueExpr
	span source.Span
}

type switchCase struct {
	variant variantRef
	target  blockRef
}

type termExpr struct {
	kind mir.TermKind
	span source.Span

	target blockRef
	unwind blockRef

	cond   operandExpr
	els    blockRef
	place  placeExpr
	cases  []switchCase
	deflt  blockRef
	value  operandExpr
	callee string
	args   []operandExpr
	hasDst bool
	dst    placeExpr
}
