package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical errors of the MIR text format
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003

	// Syntax and name resolution in the MIR text format
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynUnknownType      Code = 2002
	SynUnknownLocal     Code = 2003
	SynDuplicateName    Code = 2004
	SynBadBlockRef      Code = 2005
	SynBadProjection    Code = 2006
	SynUnknownVariant   Code = 2007
	SynMissingTerm      Code = 2008
	SynDuplicateBlock   Code = 2009
	SynRecursiveType    Code = 2010
	SynBadArgumentCount Code = 2011

	// Structural MIR validation
	MirInfo          Code = 3000
	MirInvalidBody   Code = 3001
	MirCleanupUnwind Code = 3002

	// Drop elaboration
	ElabInfo               Code = 4000
	ElabUntrackedMaybeDead Code = 4001 // drop of an untracked place whose ancestor may be uninitialized
	ElabUntrackedDrop      Code = 4002 // drop through an untracked place outside of a replace
	ElabInvariant          Code = 4003 // pass aborted on an internal precondition

	// IO
	IOInfo       Code = 5000
	IOReadFailed Code = 5001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		LexInfo:                "Lexical information",
		LexUnknownChar:         "Unknown character",
		LexUnterminatedString:  "Unterminated string",
		LexBadNumber:           "Malformed number",
		SynInfo:                "Syntax information",
		SynUnexpectedToken:     "Unexpected token",
		SynUnknownType:         "Unknown type name",
		SynUnknownLocal:        "Unknown local",
		SynDuplicateName:       "Duplicate declaration",
		SynBadBlockRef:         "Reference to an undeclared block",
		SynBadProjection:       "Projection does not apply to this type",
		SynUnknownVariant:      "Unknown enum variant",
		SynMissingTerm:         "Block has no terminator",
		SynDuplicateBlock:      "Block declared twice",
		SynRecursiveType:       "Type contains itself by value",
		SynBadArgumentCount:    "Wrong number of arguments",
		MirInfo:                "MIR information",
		MirInvalidBody:         "Malformed MIR body",
		MirCleanupUnwind:       "Cleanup block with an unwind edge",
		ElabInfo:               "Drop elaboration information",
		ElabUntrackedMaybeDead: "Drop of untracked, possibly uninitialized value",
		ElabUntrackedDrop:      "Drop of untracked value",
		ElabInvariant:          "Drop elaboration aborted",
		IOInfo:                 "IO information",
		IOReadFailed:           "Failed to read input",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("MIR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("ELB%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
