package symbolic

import "fmt"

// Compiled is an expression lowered to a closure over an ordered list of
// symbol names.
type Compiled struct {
	names []string
	fn    evalFunc
}

// Compile lowers e to a numeric function of names. Every free symbol of e
// must appear in names; extra names are allowed and ignored.
func Compile(e Expr, names []string) (*Compiled, error) {
	index, err := indexNames(names)
	if err != nil {
		return nil, err
	}
	fn, err := e.compile(index)
	if err != nil {
		return nil, err
	}
	return &Compiled{names: append([]string(nil), names...), fn: fn}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(e Expr, names []string) *Compiled {
	c, err := Compile(e, names)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Compiled) Names() []string { return append([]string(nil), c.names...) }

// Call evaluates with positional values ordered like Names.
func (c *Compiled) Call(vals ...float64) (float64, error) {
	if len(vals) != len(c.names) {
		return 0, fmt.Errorf("%w: want %d values, got %d", ErrArity, len(c.names), len(vals))
	}
	return c.fn(vals), nil
}

// CallMap evaluates with values looked up by name. Bindings not in Names are
// ignored.
func (c *Compiled) CallMap(bindings map[string]float64) (float64, error) {
	vals, err := gather(c.names, bindings)
	if err != nil {
		return 0, err
	}
	return c.fn(vals), nil
}

// CompiledVector is a list of expressions compiled over the same names.
type CompiledVector struct {
	names []string
	fns   []evalFunc
}

func CompileVector(exprs []Expr, names []string) (*CompiledVector, error) {
	index, err := indexNames(names)
	if err != nil {
		return nil, err
	}
	fns, err := compileAll(exprs, index)
	if err != nil {
		return nil, err
	}
	return &CompiledVector{names: append([]string(nil), names...), fns: fns}, nil
}

func (c *CompiledVector) Len() int        { return len(c.fns) }
func (c *CompiledVector) Names() []string { return append([]string(nil), c.names...) }

// Call evaluates every component into a new slice.
func (c *CompiledVector) Call(vals ...float64) ([]float64, error) {
	if len(vals) != len(c.names) {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrArity, len(c.names), len(vals))
	}
	return c.eval(vals), nil
}

func (c *CompiledVector) CallMap(bindings map[string]float64) ([]float64, error) {
	vals, err := gather(c.names, bindings)
	if err != nil {
		return nil, err
	}
	return c.eval(vals), nil
}

func (c *CompiledVector) eval(vals []float64) []float64 {
	out := make([]float64, len(c.fns))
	for i, f := range c.fns {
		out[i] = f(vals)
	}
	return out
}

func indexNames(names []string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrArity, name)
		}
		index[name] = i
	}
	return index, nil
}

func gather(names []string, bindings map[string]float64) ([]float64, error) {
	vals := make([]float64, len(names))
	for i, name := range names {
		v, ok := bindings[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnbound, name)
		}
		vals[i] = v
	}
	return vals, nil
}
