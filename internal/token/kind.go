package token

import "fmt"

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident     // name, L3, bb7
	IntLit    // 42
	StringLit // "text"

	KwFn          // fn
	KwType        // type
	KwStruct      // struct
	KwEnum        // enum
	KwDrop        // drop
	KwLocals      // locals
	KwArg         // arg
	KwCleanup     // cleanup
	KwConst       // const
	KwCopy        // copy
	KwMove        // move
	KwCall        // call
	KwGoto        // goto
	KwIf          // if
	KwThen        // then
	KwElse        // else
	KwSwitchTag   // switch_tag
	KwDefault     // default
	KwReturn      // return
	KwResume      // resume
	KwUnreachable // unreachable
	KwReplace     // replace
	KwUnwind      // unwind
	KwNop         // nop
	KwAs          // as
	KwOf          // of
	KwOwn         // own
	KwMut         // mut
	KwTrue        // true
	KwFalse       // false

	Colon      // :
	ColonColon // ::
	Semicolon  // ;
	Comma      // ,
	Dot        // .
	Assign     // =
	Arrow      // ->
	LArrow     // <-
	Hash       // #
	LParen     // (
	RParen     // )
	LBrace     // {
	RBrace     // }
	LBracket   // [
	RBracket   // ]
	Amp        // &
	Star       // *
	Plus       // +
	Minus      // -
	EqEq       // ==
	BangEq     // !=
	Lt         // <
	LtEq       // <=
	Gt         // >
	GtEq       // >=
	AndAnd     // &&
	OrOr       // ||
)

var kindNames = [...]string{
	Invalid:       "invalid",
	EOF:           "end of file",
	Ident:         "identifier",
	IntLit:        "integer",
	StringLit:     "string",
	KwFn:          "fn",
	KwType:        "type",
	KwStruct:      "struct",
	KwEnum:        "enum",
	KwDrop:        "drop",
	KwLocals:      "locals",
	KwArg:         "arg",
	KwCleanup:     "cleanup",
	KwConst:       "const",
	KwCopy:        "copy",
	KwMove:        "move",
	KwCall:        "call",
	KwGoto:        "goto",
	KwIf:          "if",
	KwThen:        "then",
	KwElse:        "else",
	KwSwitchTag:   "switch_tag",
	KwDefault:     "default",
	KwReturn:      "return",
	KwResume:      "resume",
	KwUnreachable: "unreachable",
	KwReplace:     "replace",
	KwUnwind:      "unwind",
	KwNop:         "nop",
	KwAs:          "as",
	KwOf:          "of",
	KwOwn:         "own",
	KwMut:         "mut",
	KwTrue:        "true",
	KwFalse:       "false",
	Colon:         ":",
	ColonColon:    "::",
	Semicolon:     ";",
	Comma:         ",",
	Dot:           ".",
	Assign:        "=",
	Arrow:         "->",
	LArrow:        "<-",
	Hash:          "#",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
	Amp:           "&",
	Star:          "*",
	Plus:          "+",
	Minus:         "-",
	EqEq:          "==",
	BangEq:        "!=",
	Lt:            "<",
	LtEq:          "<=",
	Gt:            ">",
	GtEq:          ">=",
	AndAnd:        "&&",
	OrOr:          "||",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}
