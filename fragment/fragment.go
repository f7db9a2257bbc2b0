package fragment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

/*
Package fragment implements the execution fragments installed on the nodes of
a distributed plan. A fragment is a tree of physical operators: sources at the
leaves, a sink at the root. Fragments on different nodes are connected by
grpcsink/grpcsource pairs that share a destination id.

The tree mirrors the structure of the executor's operators but carries no
dependency on them; it renders to JSON for the wire.
*/

////////////////////////////////////////////////////////////////////////////////

// OperatorType is the type of a fragment operator.
type OperatorType int

const (
	// MemorySource reads a table from the local data store.
	MemorySource OperatorType = iota
	// Filter drops rows that fail a binary expression.
	Filter
	// Map projects columns.
	Map
	// Aggregate computes an aggregate, optionally grouped.
	Aggregate
	// Limit passes through at most n rows.
	Limit
	// Union concatenates its inputs.
	Union
	// Join is an equijoin of two inputs.
	Join
	// GRPCSource receives rows sent by a remote grpcsink.
	GRPCSource
	// GRPCSink sends rows to a remote grpcsource.
	GRPCSink
	// ResultSink delivers rows to the query broker.
	ResultSink
)

var operatorNames = map[OperatorType]string{ // nolint:gochecknoglobals
	MemorySource: "memsrc",
	Filter:       "filter",
	Map:          "map",
	Aggregate:    "agg",
	Limit:        "limit",
	Union:        "union",
	Join:         "join",
	GRPCSource:   "grpcsource",
	GRPCSink:     "grpcsink",
	ResultSink:   "resultsink",
}

// String returns the textual name of the operator type.
func (t OperatorType) String() string {
	if name, ok := operatorNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// ParseOperatorType returns the operator type with the given name.
func ParseOperatorType(name string) (OperatorType, error) {
	for t, n := range operatorNames {
		if n == name {
			return t, nil
		}
	}
	return 0, NewInvalidFragmentError(name, "unknown operator")
}

// MarshalText implements encoding.TextMarshaler.
func (t OperatorType) MarshalText() ([]byte, error) {
	if _, ok := operatorNames[t]; !ok {
		return nil, NewInvalidFragmentError(t.String(), "unknown operator")
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *OperatorType) UnmarshalText(text []byte) error {
	parsed, err := ParseOperatorType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Node is a fragment operator.
type Node struct {
	Type     OperatorType `json:"op"`
	Args     []Value      `json:"args,omitempty"`
	Children []*Node      `json:"children,omitempty"`
}

// Str returns a text argument.
func Str(s string) Value {
	return Value{Text: &s}
}

// Int returns an integer argument.
func Int(i int64) Value {
	return Value{Integer: &i}
}

// Float returns a floating point argument.
func Float(f float64) Value {
	return Value{Float: &f}
}

// Bool returns a boolean argument.
func Bool(b bool) Value {
	v := Boolean(b)
	return Value{Bool: &v}
}

var bareWord = regexp.MustCompile(`^[a-zA-Z_/\.][a-zA-Z0-9_/\.-]*$`)

var binaryOperators = map[string]bool{ // nolint:gochecknoglobals
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// String returns the textual form of the value, quoting text that would not
// lex back as a word.
func (v Value) String() string {
	switch {
	case v.Text != nil:
		s := *v.Text
		if binaryOperators[s] || (bareWord.MatchString(s) && s != "true" && s != "false") {
			return s
		}
		return strconv.Quote(s)
	case v.Integer != nil:
		return strconv.FormatInt(*v.Integer, 10)
	case v.Float != nil:
		s := strconv.FormatFloat(*v.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case v.Bool != nil:
		return strconv.FormatBool(bool(*v.Bool))
	default:
		return "null"
	}
}

// traverse a fragment tree, executing pre and post-order functions.
func traverse(n *Node, pre func(n *Node), post func(n *Node)) {
	if n == nil {
		return
	}
	if pre != nil {
		pre(n)
	}
	for _, c := range n.Children {
		traverse(c, pre, post)
	}
	if post != nil {
		post(n)
	}
}

// Traverse walks the tree rooted at n, calling pre before and post after a
// node's children. Either function may be nil.
func (n *Node) Traverse(pre func(n *Node), post func(n *Node)) {
	traverse(n, pre, post)
}

// Find returns the operators of type t in pre-order.
func (n *Node) Find(t OperatorType) []*Node {
	found := []*Node{}
	traverse(n, func(c *Node) {
		if c.Type == t {
			found = append(found, c)
		}
	}, nil)
	return found
}

// Sources returns the leaf operators that produce data, local or remote, in
// pre-order.
func (n *Node) Sources() []*Node {
	found := []*Node{}
	traverse(n, func(c *Node) {
		if c.Type == MemorySource || c.Type == GRPCSource {
			found = append(found, c)
		}
	}, nil)
	return found
}

// Sinks returns the operators that ship results out of the fragment.
func (n *Node) Sinks() []*Node {
	found := []*Node{}
	traverse(n, func(c *Node) {
		if c.Type == GRPCSink || c.Type == ResultSink {
			found = append(found, c)
		}
	}, nil)
	return found
}

// String returns the textual form of the tree.
func (n Node) String() string {
	args := ""
	if len(n.Args) > 0 {
		terms := make([]string, len(n.Args))
		for i, arg := range n.Args {
			terms[i] = arg.String()
		}
		args = " (" + strings.Join(terms, " ") + ")"
	}
	children := ""
	if len(n.Children) > 0 {
		terms := make([]string, len(n.Children))
		for i, c := range n.Children {
			terms[i] = c.String()
		}
		children = " " + strings.Join(terms, " ")
	}
	return fmt.Sprintf("[%s%s%s]", n.Type, args, children)
}

// Render returns the JSON encoding of the fragment. Invalid trees are not
// rendered.
func (n *Node) Render() ([]byte, error) {
	if n == nil {
		return nil, NewInvalidFragmentError("fragment", "nil tree")
	}
	if err := validate(n); err != nil {
		return nil, err
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fragment: %w", err)
	}
	return data, nil
}

// Decode parses a fragment previously produced by Render.
func Decode(data []byte) (*Node, error) {
	node := &Node{}
	if err := json.Unmarshal(data, node); err != nil {
		return nil, fmt.Errorf("failed to decode fragment: %w", err)
	}
	if err := validate(node); err != nil {
		return nil, err
	}
	return node, nil
}
