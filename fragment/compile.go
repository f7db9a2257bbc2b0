package fragment

import (
	"fmt"

	"github.com/relvacode/iso8601"
)

// signature describes the arguments and inputs an operator accepts.
type signature struct {
	minArgs, maxArgs         int // maxArgs < 0 means unbounded
	minChildren, maxChildren int
	check                    func(args []Value) error
}

var signatures = map[OperatorType]signature{ // nolint:gochecknoglobals
	MemorySource: {1, 3, 0, 0, checkMemorySource},
	Filter:       {3, 3, 1, 1, checkFilter},
	Map:          {1, -1, 1, 1, checkAllText},
	Aggregate:    {2, -1, 1, 1, checkAggregate},
	Limit:        {1, 1, 1, 1, checkLimit},
	Union:        {0, 0, 1, -1, nil},
	Join:         {2, 2, 2, 2, checkAllText},
	GRPCSource:   {1, 1, 0, 0, checkGRPCSource},
	GRPCSink:     {2, 2, 1, 1, checkGRPCSink},
	ResultSink:   {1, 1, 1, 1, checkAllText},
}

var aggregateFunctions = map[string]bool{ // nolint:gochecknoglobals
	"count": true, "sum": true, "min": true, "max": true, "mean": true,
}

// Parse parses the textual form of a fragment.
func Parse(text string) (*Node, error) {
	ast, err := NewParser().ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	return Compile(*ast)
}

// Compile converts a parsed expression into a validated fragment. Timestamp
// arguments given as ISO8601 strings are converted to nanoseconds.
func Compile(ast Expr) (*Node, error) {
	typ, err := ParseOperatorType(ast.Operator)
	if err != nil {
		return nil, err
	}
	node := &Node{
		Type: typ,
		Args: ast.Args,
	}
	for _, child := range ast.Children {
		c, err := Compile(*child)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, c)
	}
	if typ == MemorySource && len(node.Args) == 3 {
		args := append([]Value{}, node.Args...)
		for i := 1; i < 3; i++ {
			nanos, err := timestampNanos(args[i])
			if err != nil {
				return nil, NewInvalidFragmentError(typ.String(), err.Error())
			}
			args[i] = Int(nanos)
		}
		node.Args = args
	}
	if err := check(node); err != nil {
		return nil, err
	}
	return node, nil
}

func timestampNanos(v Value) (int64, error) {
	switch {
	case v.Integer != nil:
		return *v.Integer, nil
	case v.Text != nil:
		t, err := iso8601.ParseString(*v.Text)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", *v.Text, err)
		}
		return t.UnixNano(), nil
	default:
		return 0, fmt.Errorf("invalid timestamp %s", v)
	}
}

// validate checks a whole tree.
func validate(n *Node) error {
	var err error
	traverse(n, func(c *Node) {
		if err == nil {
			err = check(c)
		}
	}, nil)
	return err
}

// check validates a single operator against its signature.
func check(n *Node) error {
	sig, ok := signatures[n.Type]
	if !ok {
		return NewInvalidFragmentError(n.Type.String(), "unknown operator")
	}
	name := n.Type.String()
	if len(n.Args) < sig.minArgs || (sig.maxArgs >= 0 && len(n.Args) > sig.maxArgs) {
		return NewInvalidFragmentError(name, fmt.Sprintf("unexpected argument count %d", len(n.Args)))
	}
	if len(n.Children) < sig.minChildren || (sig.maxChildren >= 0 && len(n.Children) > sig.maxChildren) {
		return NewInvalidFragmentError(name, fmt.Sprintf("unexpected input count %d", len(n.Children)))
	}
	for i, c := range n.Children {
		if c == nil {
			return NewInvalidFragmentError(name, fmt.Sprintf("input %d is nil", i))
		}
	}
	for i, arg := range n.Args {
		if arg.count() != 1 {
			return NewInvalidFragmentError(name, fmt.Sprintf("argument %d must hold exactly one value", i))
		}
	}
	if sig.check != nil {
		if err := sig.check(n.Args); err != nil {
			return NewInvalidFragmentError(name, err.Error())
		}
	}
	return nil
}

func (v Value) count() int {
	count := 0
	for _, set := range []bool{v.Text != nil, v.Integer != nil, v.Float != nil, v.Bool != nil} {
		if set {
			count++
		}
	}
	return count
}

func checkAllText(args []Value) error {
	for i, arg := range args {
		if arg.Text == nil {
			return fmt.Errorf("argument %d must be a name, got %s", i, arg)
		}
	}
	return nil
}

func checkMemorySource(args []Value) error {
	if args[0].Text == nil {
		return fmt.Errorf("table must be a name, got %s", args[0])
	}
	if len(args) == 2 {
		return fmt.Errorf("start and stop times must be given together")
	}
	if len(args) == 3 {
		if args[1].Integer == nil || args[2].Integer == nil {
			return fmt.Errorf("start and stop must be timestamps")
		}
		if *args[1].Integer > *args[2].Integer {
			return fmt.Errorf("start %d is after stop %d", *args[1].Integer, *args[2].Integer)
		}
	}
	return nil
}

func checkFilter(args []Value) error {
	if args[0].Text == nil {
		return fmt.Errorf("filter field must be a name, got %s", args[0])
	}
	if args[1].Text == nil || !binaryOperators[*args[1].Text] {
		return fmt.Errorf("invalid binary operator %s", args[1])
	}
	return nil
}

func checkAggregate(args []Value) error {
	if err := checkAllText(args); err != nil {
		return err
	}
	if !aggregateFunctions[*args[0].Text] {
		return fmt.Errorf("unknown aggregate function %s", *args[0].Text)
	}
	return nil
}

func checkLimit(args []Value) error {
	if args[0].Integer == nil || *args[0].Integer < 0 {
		return fmt.Errorf("limit must be a non-negative integer, got %s", args[0])
	}
	return nil
}

func checkGRPCSource(args []Value) error {
	if args[0].Integer == nil {
		return fmt.Errorf("source id must be an integer, got %s", args[0])
	}
	return nil
}

func checkGRPCSink(args []Value) error {
	if args[0].Text == nil {
		return fmt.Errorf("sink address must be text, got %s", args[0])
	}
	if args[1].Integer == nil {
		return fmt.Errorf("destination id must be an integer, got %s", args[1])
	}
	return nil
}
