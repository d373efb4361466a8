package parser

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/honua-io/honua/internal/lexer"
)

// Parse turns source text into a Document. The returned error is a
// *lexer.LexError for lexical problems and a *ParseError for grammar
// problems; both always carry a position.
func Parse(src []byte, filename string) (*Document, error) {
	tokens, err := lexer.Tokenize(src, filename)
	if err != nil {
		return nil, err
	}
	if err := scanDelimiters(lexer.NewStream(tokens)); err != nil {
		return nil, err
	}

	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		d := diags[0]
		pos := hcl.InitialPos
		if d.Subject != nil {
			pos = d.Subject.Start
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		return nil, errAt(pos, "%s", msg)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errAt(hcl.InitialPos, "unexpected body type from parser")
	}
	blocks, err := translateBody(body)
	if err != nil {
		return nil, err
	}
	return &Document{Blocks: blocks}, nil
}

// openDelim tracks an unclosed delimiter during the pre-scan. For braces that
// open a block it remembers the block header line, which makes the eventual
// error message point at the construct the user actually wrote.
type openDelim struct {
	tok       lexer.Token
	blockLine int
}

// scanDelimiters walks the token stream checking that braces, brackets and
// parens nest properly. It needs two tokens of lookahead to recognize block
// headers (IDENT STRING? '{') before consuming them.
func scanDelimiters(s *lexer.Stream) error {
	var stack []openDelim
	for {
		t := s.Peek()
		if t.Kind == lexer.EOF {
			break
		}

		// Block header forms: IDENT '{' and IDENT STRING '{'.
		if t.Kind == lexer.IDENT {
			if s.PeekN(1).Kind == lexer.LBRACE {
				s.Next()
				brace := s.Next()
				stack = append(stack, openDelim{tok: brace, blockLine: t.Line})
				continue
			}
			if s.PeekN(1).Kind == lexer.STRING && s.PeekN(2).Kind == lexer.LBRACE {
				s.Next()
				s.Next()
				brace := s.Next()
				stack = append(stack, openDelim{tok: brace, blockLine: t.Line})
				continue
			}
		}

		switch t.Kind {
		case lexer.LBRACE, lexer.LBRACK, lexer.LPAREN:
			stack = append(stack, openDelim{tok: t, blockLine: t.Line})
		case lexer.RBRACE, lexer.RBRACK, lexer.RPAREN:
			want := matchingOpen(t.Kind)
			if len(stack) == 0 {
				return &ParseError{Line: t.Line, Col: t.Col,
					Message: "unexpected " + t.Kind.String() + " with no matching " + want.String()}
			}
			top := stack[len(stack)-1]
			if top.tok.Kind != want {
				return &ParseError{Line: t.Line, Col: t.Col,
					Message: "expected " + matchingClose(top.tok.Kind).String() +
						" to close " + top.tok.Kind.String() + " opened at line " + itoa(top.tok.Line)}
			}
			stack = stack[:len(stack)-1]
		}
		s.Next()
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		eof := s.Peek()
		if top.tok.Kind == lexer.LBRACE {
			return &ParseError{Line: eof.Line, Col: eof.Col,
				Message: "expected '}' to close block opened at line " + itoa(top.blockLine)}
		}
		return &ParseError{Line: eof.Line, Col: eof.Col,
			Message: "expected " + matchingClose(top.tok.Kind).String() +
				" to close " + top.tok.Kind.String() + " opened at line " + itoa(top.tok.Line)}
	}
	return nil
}

func matchingOpen(k lexer.Kind) lexer.Kind {
	switch k {
	case lexer.RBRACE:
		return lexer.LBRACE
	case lexer.RBRACK:
		return lexer.LBRACK
	default:
		return lexer.LPAREN
	}
}

func matchingClose(k lexer.Kind) lexer.Kind {
	switch k {
	case lexer.LBRACE:
		return lexer.RBRACE
	case lexer.LBRACK:
		return lexer.RBRACK
	default:
		return lexer.RPAREN
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// translateBody converts an hclsyntax body into Blocks and Attributes,
// preserving source order.
func translateBody(body *hclsyntax.Body) ([]*Block, error) {
	var blocks []*Block
	for _, hb := range body.Blocks {
		b, err := translateBlock(hb)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func translateBlock(hb *hclsyntax.Block) (*Block, error) {
	if len(hb.Labels) > 1 {
		return nil, errAt(hb.LabelRanges[1].Start,
			"expected '{' after block label, found a second label on %s block", hb.Type)
	}
	b := &Block{Kind: hb.Type, DefRange: hb.DefRange()}
	if len(hb.Labels) == 1 {
		b.Label = hb.Labels[0]
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(hb.Body.Attributes))
	for _, a := range hb.Body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	for _, a := range attrs {
		v, err := translateExpr(a.Expr)
		if err != nil {
			return nil, err
		}
		b.Attributes = append(b.Attributes, &Attribute{Name: a.Name, Value: v, Range: a.SrcRange})
	}

	nested, err := translateBody(hb.Body)
	if err != nil {
		return nil, err
	}
	b.Blocks = nested
	return b, nil
}

// translateExpr maps the subset of hclsyntax expressions the grammar admits
// onto the Value union. Anything outside the grammar is a ParseError rather
// than a silent passthrough.
func translateExpr(expr hclsyntax.Expression) (Value, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return literalValue(e.Val, e.SrcRange)

	case *hclsyntax.TemplateExpr:
		if e.IsStringLiteral() {
			v, _ := e.Parts[0].(*hclsyntax.LiteralValueExpr)
			return literalValue(v.Val, e.SrcRange)
		}
		parts := make([]Value, 0, len(e.Parts))
		for _, p := range e.Parts {
			pv, err := translateExpr(p)
			if err != nil {
				return nil, err
			}
			parts = append(parts, pv)
		}
		return &TemplateVal{Parts: parts, SrcRange: e.SrcRange}, nil

	case *hclsyntax.TemplateWrapExpr:
		return translateExpr(e.Wrapped)

	case *hclsyntax.ScopeTraversalExpr:
		parts, err := traversalParts(e.Traversal)
		if err != nil {
			return nil, err
		}
		return &RefVal{Parts: parts, SrcRange: e.SrcRange}, nil

	case *hclsyntax.FunctionCallExpr:
		args := make([]Value, 0, len(e.Args))
		for _, a := range e.Args {
			av, err := translateExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, av)
		}
		return &CallVal{Name: e.Name, Args: args, SrcRange: e.Range()}, nil

	case *hclsyntax.TupleConsExpr:
		elems := make([]Value, 0, len(e.Exprs))
		for _, item := range e.Exprs {
			ev, err := translateExpr(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ev)
		}
		return &ListVal{Elems: elems, SrcRange: e.SrcRange}, nil

	case *hclsyntax.ConditionalExpr:
		cond, err := translateExpr(e.Condition)
		if err != nil {
			return nil, err
		}
		tv, err := translateExpr(e.TrueResult)
		if err != nil {
			return nil, err
		}
		fv, err := translateExpr(e.FalseResult)
		if err != nil {
			return nil, err
		}
		return &CondVal{Cond: cond, True: tv, False: fv, SrcRange: e.SrcRange}, nil

	case *hclsyntax.UnaryOpExpr:
		if e.Op == hclsyntax.OpNegate {
			inner, err := translateExpr(e.Val)
			if err != nil {
				return nil, err
			}
			if n, ok := inner.(*NumberVal); ok {
				return &NumberVal{V: -n.V, SrcRange: e.SrcRange}, nil
			}
		}
		return nil, errAt(e.SrcRange.Start, "expected a value, found unary operator expression")

	case *hclsyntax.ParenthesesExpr:
		return translateExpr(e.Expression)

	default:
		return nil, errAt(expr.Range().Start,
			"expected string, number, bool, list, reference or function call")
	}
}

func literalValue(v cty.Value, rng hcl.Range) (Value, error) {
	switch {
	case v.IsNull():
		return nil, errAt(rng.Start, "expected a value, found null")
	case v.Type() == cty.String:
		return &StringVal{V: v.AsString(), SrcRange: rng}, nil
	case v.Type() == cty.Bool:
		return &BoolVal{V: v.True(), SrcRange: rng}, nil
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return &NumberVal{V: f, SrcRange: rng}, nil
	default:
		return nil, errAt(rng.Start, "unsupported literal of type %s", v.Type().FriendlyName())
	}
}

func traversalParts(tr hcl.Traversal) ([]string, error) {
	parts := make([]string, 0, len(tr))
	for _, step := range tr {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			parts = append(parts, s.Name)
		case hcl.TraverseAttr:
			parts = append(parts, s.Name)
		default:
			return nil, errAt(step.SourceRange().Start,
				"expected a dotted reference like data_source.db, found an index expression")
		}
	}
	if len(parts) < 2 {
		return nil, errAt(tr.SourceRange().Start,
			"expected a dotted reference like data_source.db, found bare identifier %q", parts[0])
	}
	return parts, nil
}
