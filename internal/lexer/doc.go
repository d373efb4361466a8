// Package lexer turns configuration source text into a positioned token
// stream. It is a thin layer over hclsyntax's scanner that normalizes token
// kinds to the small set the configuration grammar actually uses and drops
// comments and newlines, so the parser can work with uniform lookahead.
package lexer
