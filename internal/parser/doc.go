// Package parser builds the transient Document AST from configuration
// source text.
//
// Parsing happens in two passes: a delimiter pre-scan over the lexer's token
// stream, which produces the "expected '}' to close block opened at line N"
// class of errors with exact positions, then an hclsyntax parse whose body is
// translated into the Document / Block / Attribute / Value model. The first
// fatal error always wins; a malformed document is never partially used.
package parser
