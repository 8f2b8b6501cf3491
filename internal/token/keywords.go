package token

var keywords = map[string]Kind{
	"fn":          KwFn,
	"type":        KwType,
	"struct":      KwStruct,
	"enum":        KwEnum,
	"drop":        KwDrop,
	"locals":      KwLocals,
	"arg":         KwArg,
	"cleanup":     KwCleanup,
	"const":       KwConst,
	"copy":        KwCopy,
	"move":        KwMove,
	"call":        KwCall,
	"goto":        KwGoto,
	"if":          KwIf,
	"then":        KwThen,
	"else":        KwElse,
	"switch_tag":  KwSwitchTag,
	"default":     KwDefault,
	"return":      KwReturn,
	"resume":      KwResume,
	"unreachable": KwUnreachable,
	"replace":     KwReplace,
	"unwind":      KwUnwind,
	"nop":         KwNop,
	"as":          KwAs,
	"of":          KwOf,
	"own":         KwOwn,
	"mut":         KwMut,
	"true":        KwTrue,
	"false":       KwFalse,
}

// LookupKeyword reports whether ident is a keyword. Keywords are
// lowercase only.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
