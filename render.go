package gosymopt

import (
	"fmt"
	"strings"
)

// Render returns the problem as display LaTeX wrapped in $$: the objective
// with passive variables substituted, the active variables' domains and the
// active constraints.
func (p *Problem) Render() (string, error) {
	if p.objective == nil {
		return "", fmt.Errorf("%w: no objective", ErrIncompleteModel)
	}
	active := p.ActiveVariables()
	passive := p.PassiveVariables()

	syms := make([]string, len(active))
	domains := make([]string, len(active))
	for i, v := range active {
		syms[i] = v.Symbol().LaTeX()
		domains[i] = v.Symbol().LaTeX() + ` \in ` + v.Bound().LaTeX()
	}

	var b strings.Builder
	b.WriteString("$$")
	fmt.Fprintf(&b, `\underset{ %s }{ \text{ %s } }\quad %s`,
		strings.Join(syms, ", "), p.optType.verb(), p.objective.ReduceForDisplay(passive).LaTeX())
	if len(domains) > 0 {
		fmt.Fprintf(&b, `\quad\quad\quad \text{with}\quad \begin{gather} %s \end{gather}`, strings.Join(domains, `\\ `))
	}
	if cons := p.ActiveConstraints(); len(cons) > 0 {
		rows := make([]string, len(cons))
		for i, c := range cons {
			rows[i] = fmt.Sprintf("%s %s 0", c.ReduceForDisplay(passive).LaTeX(), c.Relation().LaTeX())
		}
		fmt.Fprintf(&b, `\\ \text{Subject to}\quad\quad \begin{array}{c} %s \end{array}`, strings.Join(rows, ` \\ `))
	}
	b.WriteString("$$")
	return b.String(), nil
}

// String is a plain-text summary of the problem.
func (p *Problem) String() string {
	var b strings.Builder
	passive := p.PassiveVariables()
	b.WriteString(p.optType.verb())
	if p.objective != nil {
		b.WriteString(" " + p.objective.ReduceForDisplay(passive).String())
	}
	b.WriteString("\n")
	for _, v := range p.ActiveVariables() {
		fmt.Fprintf(&b, "  %s in %s\n", v.Symbol(), v.Bound())
	}
	for _, v := range passive {
		fmt.Fprintf(&b, "  %s = %g (fixed)\n", v.Symbol(), v.Value())
	}
	if cons := p.ActiveConstraints(); len(cons) > 0 {
		b.WriteString("subject to\n")
		for _, c := range cons {
			fmt.Fprintf(&b, "  %s %s 0\n", c.ReduceForDisplay(passive), c.Relation())
		}
	}
	return b.String()
}
