package lexer

// Stream is a cursor over a token slice with arbitrary lookahead. The parser
// relies on at least two tokens of lookahead to tell blocks, attributes and
// dotted references apart without backtracking.
type Stream struct {
	tokens []Token
	pos    int
}

// NewStream wraps tokens in a cursor. The slice must end with an EOF token,
// which Peek and Next return forever once reached.
func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Next consumes and returns the current token.
func (s *Stream) Next() Token {
	t := s.Peek()
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return t
}

// Peek returns the current token without consuming it.
func (s *Stream) Peek() Token {
	return s.PeekN(0)
}

// PeekN returns the token n positions ahead of the cursor without consuming
// anything. Past the end it returns the trailing EOF token.
func (s *Stream) PeekN(n int) Token {
	i := s.pos + n
	if i >= len(s.tokens) {
		i = len(s.tokens) - 1
	}
	return s.tokens[i]
}
