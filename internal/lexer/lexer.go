package lexer

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Kind classifies a token.
type Kind int

// Token kinds produced by Tokenize.
const (
	IDENT Kind = iota
	STRING
	NUMBER
	BOOL
	LBRACE
	RBRACE
	LBRACK
	RBRACK
	ASSIGN
	COMMA
	DOT
	LPAREN
	RPAREN
	EOF
)

var kindNames = map[Kind]string{
	IDENT:  "IDENT",
	STRING: "STRING",
	NUMBER: "NUMBER",
	BOOL:   "BOOL",
	LBRACE: "'{'",
	RBRACE: "'}'",
	LBRACK: "'['",
	RBRACK: "']'",
	ASSIGN: "'='",
	COMMA:  "','",
	DOT:    "'.'",
	LPAREN: "'('",
	RPAREN: "')'",
	EOF:    "EOF",
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexeme with its source position (1-based line and column).
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Col    int
}

// LexError reports a lexical failure such as an unterminated string or
// block comment.
type LexError struct {
	Line    int
	Col     int
	Message string
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message)
}

// Tokenize scans src into a token stream ending in EOF. Comments (`#`, `//`
// and `/* */`) and newlines are discarded; comment-like substrings inside
// quoted strings survive because the scanner tokenizes string contents
// separately. The first lexical problem aborts the scan with a *LexError.
func Tokenize(src []byte, filename string) ([]Token, error) {
	raw, diags := hclsyntax.LexConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		d := diags[0]
		pos := hcl.InitialPos
		if d.Subject != nil {
			pos = d.Subject.Start
		}
		return nil, &LexError{Line: pos.Line, Col: pos.Column, Message: d.Summary}
	}

	var out []Token
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		pos := t.Range.Start
		switch t.Type {
		case hclsyntax.TokenNewline, hclsyntax.TokenComment:
			continue
		case hclsyntax.TokenIdent:
			lex := string(t.Bytes)
			kind := IDENT
			if lex == "true" || lex == "false" {
				kind = BOOL
			}
			out = append(out, Token{Kind: kind, Lexeme: lex, Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenNumberLit:
			out = append(out, Token{Kind: NUMBER, Lexeme: string(t.Bytes), Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenOQuote:
			tok, consumed, err := scanString(raw[i:], pos)
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
			i += consumed
		case hclsyntax.TokenOBrace:
			out = append(out, Token{Kind: LBRACE, Lexeme: "{", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenCBrace:
			out = append(out, Token{Kind: RBRACE, Lexeme: "}", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenOBrack:
			out = append(out, Token{Kind: LBRACK, Lexeme: "[", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenCBrack:
			out = append(out, Token{Kind: RBRACK, Lexeme: "]", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenEqual:
			out = append(out, Token{Kind: ASSIGN, Lexeme: "=", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenComma:
			out = append(out, Token{Kind: COMMA, Lexeme: ",", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenDot:
			out = append(out, Token{Kind: DOT, Lexeme: ".", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenOParen:
			out = append(out, Token{Kind: LPAREN, Lexeme: "(", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenCParen:
			out = append(out, Token{Kind: RPAREN, Lexeme: ")", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenEOF:
			out = append(out, Token{Kind: EOF, Lexeme: "", Line: pos.Line, Col: pos.Column})
		case hclsyntax.TokenInvalid, hclsyntax.TokenBadUTF8:
			return nil, &LexError{Line: pos.Line, Col: pos.Column,
				Message: fmt.Sprintf("invalid token %q", string(t.Bytes))}
		default:
			// Operators for conditionals and templates pass through as-is;
			// the parser hands those expressions to hclsyntax anyway.
			out = append(out, Token{Kind: IDENT, Lexeme: string(t.Bytes), Line: pos.Line, Col: pos.Column})
		}
	}
	if len(out) == 0 || out[len(out)-1].Kind != EOF {
		out = append(out, Token{Kind: EOF, Line: 1, Col: 1})
	}
	return out, nil
}

// scanString collapses an OQuote..CQuote token run into one STRING token.
// The returned count is the number of extra raw tokens consumed.
func scanString(raw hclsyntax.Tokens, start hcl.Pos) (Token, int, error) {
	var sb strings.Builder
	for i := 1; i < len(raw); i++ {
		t := raw[i]
		switch t.Type {
		case hclsyntax.TokenCQuote:
			return Token{Kind: STRING, Lexeme: sb.String(), Line: start.Line, Col: start.Column}, i, nil
		case hclsyntax.TokenEOF:
			return Token{}, 0, &LexError{Line: start.Line, Col: start.Column,
				Message: "unterminated string literal"}
		default:
			sb.Write(t.Bytes)
		}
	}
	return Token{}, 0, &LexError{Line: start.Line, Col: start.Column, Message: "unterminated string literal"}
}
