package fragment

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
This file contains a participle grammar for the textual form of execution
fragments. The form is the same one Node.String produces, so a fragment can
be printed, edited by hand in a plan specification, and parsed back:

	[grpcsink ("kelvin:59300" 1) [filter (latency_ms > 100) [memsrc (http_events)]]]
*/

////////////////////////////////////////////////////////////////////////////////

var (
	Options = []participle.Option{ // nolint:gochecknoglobals
		participle.Lexer(
			lexer.MustSimple([]lexer.SimpleRule{
				{Name: "Word", Pattern: `[a-zA-Z_/\.][a-zA-Z0-9_/\.-]*`},
				{Name: "QuotedString", Pattern: `"(?:\\.|[^"])*"`},
				{Name: "whitespace", Pattern: `\s+`},
				{Name: "Operators", Pattern: `[()\[\]]`},
				{Name: "BinaryOperator", Pattern: `=|!=|<=|>=|<|>`},
				{Name: "Float", Pattern: `[-+]?\d*\.\d+([eE][-+]?\d+)?`},
				{Name: "Integer", Pattern: `[-+]?[0-9]+`},
			}),
		),
		participle.Unquote("QuotedString"),
	}
)

// Expr is a parsed operator and its inputs.
type Expr struct {
	Operator string  `parser:"\"[\" @Word"`
	Args     []Value `parser:"( \"(\" @@* \")\" )?"`
	Children []*Expr `parser:"@@* \"]\""`
}

// Value is an operator argument.
type Value struct {
	Float   *float64 `parser:"  @Float" json:"float,omitempty"`
	Integer *int64   `parser:"| @Integer" json:"int,omitempty"`
	Bool    *Boolean `parser:"| @(\"true\":Word | \"false\":Word)" json:"bool,omitempty"`
	Text    *string  `parser:"| @(QuotedString | Word | BinaryOperator)" json:"text,omitempty"`
}

// Boolean is a bool captured from the literals true and false.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// NewParser returns a new fragment parser.
func NewParser() *participle.Parser[Expr] {
	return participle.MustBuild[Expr](Options...)
}
