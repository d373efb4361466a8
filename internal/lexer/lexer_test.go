package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Kind)
	}
	return out
}

func TestTokenize_BlockHeader(t *testing.T) {
	t.Parallel()

	src := `service "wfs" {
	enabled = true
	max_features = 5000
}
`
	tokens, err := Tokenize([]byte(src), "test.hcl")
	require.NoError(t, err)

	require.Equal(t, []Kind{
		IDENT, STRING, LBRACE,
		IDENT, ASSIGN, BOOL,
		IDENT, ASSIGN, NUMBER,
		RBRACE, EOF,
	}, kinds(tokens))

	require.Equal(t, "service", tokens[0].Lexeme)
	require.Equal(t, "wfs", tokens[1].Lexeme)
	require.Equal(t, 1, tokens[0].Line)
	require.Equal(t, 1, tokens[0].Col)
	require.Equal(t, 2, tokens[3].Line)
	require.Equal(t, "true", tokens[5].Lexeme)
	require.Equal(t, "5000", tokens[8].Lexeme)
}

func TestTokenize_CommentsAndNewlinesDropped(t *testing.T) {
	t.Parallel()

	src := `# leading comment
// another style
/* block
   comment */
title = "Honua"
`
	tokens, err := Tokenize([]byte(src), "test.hcl")
	require.NoError(t, err)
	require.Equal(t, []Kind{IDENT, ASSIGN, STRING, EOF}, kinds(tokens))
	require.Equal(t, 5, tokens[0].Line)
}

func TestTokenize_CommentMarkerInsideString(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize([]byte(`connection = "Data Source=./db.sqlite # not a comment"`), "test.hcl")
	require.NoError(t, err)
	require.Equal(t, []Kind{IDENT, ASSIGN, STRING, EOF}, kinds(tokens))
	require.Equal(t, "Data Source=./db.sqlite # not a comment", tokens[2].Lexeme)
}

func TestTokenize_DottedReferenceAndCall(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize([]byte(`data_source = data_source.db
password = env("DB_PASSWORD")`), "test.hcl")
	require.NoError(t, err)
	require.Equal(t, []Kind{
		IDENT, ASSIGN, IDENT, DOT, IDENT,
		IDENT, ASSIGN, IDENT, LPAREN, STRING, RPAREN,
		EOF,
	}, kinds(tokens))
}

func TestTokenize_List(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize([]byte(`services = ["wfs", "wms"]`), "test.hcl")
	require.NoError(t, err)
	require.Equal(t, []Kind{IDENT, ASSIGN, LBRACK, STRING, COMMA, STRING, RBRACK, EOF}, kinds(tokens))
}

func TestTokenize_UnterminatedString(t *testing.T) {
	t.Parallel()

	_, err := Tokenize([]byte("name = \"oops\n"), "test.hcl")
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, 1, lexErr.Line)
	require.NotEmpty(t, lexErr.Message)
}

func TestTokenize_AlwaysEndsInEOF(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize(nil, "empty.hcl")
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	require.Equal(t, EOF, tokens[len(tokens)-1].Kind)
}

func TestStream_Lookahead(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize([]byte(`service "wfs" {}`), "test.hcl")
	require.NoError(t, err)
	s := NewStream(tokens)

	require.Equal(t, IDENT, s.Peek().Kind)
	require.Equal(t, STRING, s.PeekN(1).Kind)
	require.Equal(t, LBRACE, s.PeekN(2).Kind)

	// Peeking never consumes.
	require.Equal(t, IDENT, s.Peek().Kind)

	require.Equal(t, "service", s.Next().Lexeme)
	require.Equal(t, "wfs", s.Next().Lexeme)

	// Past the end the stream pins to the trailing EOF.
	require.Equal(t, EOF, s.PeekN(99).Kind)
	s.Next()
	s.Next()
	require.Equal(t, EOF, s.Next().Kind)
	require.Equal(t, EOF, s.Next().Kind)
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "'{'", LBRACE.String())
	require.Equal(t, "IDENT", IDENT.String())
	require.Equal(t, "EOF", EOF.String())
}
