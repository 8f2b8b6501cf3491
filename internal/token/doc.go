// Package token defines the lexical tokens of textual MIR, the format
// mir.Dump prints and the parser reads back.
// Invariants:
//   - Token.Text is the source slice, NFC-normalized for identifiers.
//   - Token.Span covers the source bytes of the token exactly.
//   - Local and block names (L3, bb7) are identifiers; the parser decodes
//     them.
//   - Keywords are reserved only where the grammar expects a keyword; field
//     and variant names may reuse them.
package token
