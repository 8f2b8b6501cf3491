// Package fuzztests holds fuzz harnesses for the textual MIR front end and
// the drop elaboration pass. They check that no input panics or hangs the
// lexer or parser, that accepted modules print back stably, and that every
// body the pass accepts stays valid after its patch is applied.
package fuzztests
