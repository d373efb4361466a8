package parser

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Document is the ordered list of top-level blocks from one source file.
// It is transient: the resolver consumes it and callers keep only the
// ResolvedConfig it produces.
type Document struct {
	Blocks []*Block
}

// BlocksOfKind returns the blocks with the given kind, in document order.
func (d *Document) BlocksOfKind(kind string) []*Block {
	var out []*Block
	for _, b := range d.Blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// Block is a kinded, optionally labeled configuration section.
type Block struct {
	Kind       string
	Label      string
	Attributes []*Attribute
	Blocks     []*Block
	DefRange   hcl.Range
}

// Path returns the dotted identity of the block, e.g. "data_source.db" or
// "honua" for unlabeled singletons.
func (b *Block) Path() string {
	if b.Label == "" {
		return b.Kind
	}
	return b.Kind + "." + b.Label
}

// Attribute names one value inside a block.
type Attribute struct {
	Name  string
	Value Value
	Range hcl.Range
}

// Value is one node of the value union. Concrete types: StringVal, NumberVal,
// BoolVal, ListVal, RefVal, CallVal, CondVal, TemplateVal.
type Value interface {
	// Range is the source extent of the value, for error reporting.
	Range() hcl.Range
}

// StringVal is a literal string.
type StringVal struct {
	V        string
	SrcRange hcl.Range
}

// NumberVal is a literal number.
type NumberVal struct {
	V        float64
	SrcRange hcl.Range
}

// BoolVal is a literal boolean.
type BoolVal struct {
	V        bool
	SrcRange hcl.Range
}

// ListVal is a bracketed list of values.
type ListVal struct {
	Elems    []Value
	SrcRange hcl.Range
}

// RefVal is a dotted reference such as data_source.db or var.region.
type RefVal struct {
	Parts    []string
	SrcRange hcl.Range
}

// Path returns the dotted form of the reference.
func (v *RefVal) Path() string { return strings.Join(v.Parts, ".") }

// CallVal is a function call such as env("DATABASE_URL").
type CallVal struct {
	Name     string
	Args     []Value
	SrcRange hcl.Range
}

// CondVal is a ternary expression: Cond ? True : False.
type CondVal struct {
	Cond     Value
	True     Value
	False    Value
	SrcRange hcl.Range
}

// TemplateVal is a quoted string with interpolated expressions; resolving it
// concatenates the resolved parts.
type TemplateVal struct {
	Parts    []Value
	SrcRange hcl.Range
}

// Range implementations for the value union.
func (v *StringVal) Range() hcl.Range   { return v.SrcRange }
func (v *NumberVal) Range() hcl.Range   { return v.SrcRange }
func (v *BoolVal) Range() hcl.Range     { return v.SrcRange }
func (v *ListVal) Range() hcl.Range     { return v.SrcRange }
func (v *RefVal) Range() hcl.Range      { return v.SrcRange }
func (v *CallVal) Range() hcl.Range     { return v.SrcRange }
func (v *CondVal) Range() hcl.Range     { return v.SrcRange }
func (v *TemplateVal) Range() hcl.Range { return v.SrcRange }

// ParseError reports a grammar violation with its position and what the
// parser expected instead.
type ParseError struct {
	Line    int
	Col     int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message)
}

func errAt(pos hcl.Pos, format string, args ...any) *ParseError {
	return &ParseError{Line: pos.Line, Col: pos.Column, Message: fmt.Sprintf(format, args...)}
}
