package query

// Simplify pushes negations inward and removes double negation, repeating
// until no rule applies:
//
//	NOT NOT a              -> a
//	(NOT a) AND (NOT b)    -> NOT (a OR b)
//	(NOT a) OR (NOT b)     -> NOT (a AND b)
//	(NOT a) XOR (NOT b)    -> a XOR b
//
// The result denotes the same set as f for every shelf. Every rule removes at
// least one negation, so the loop terminates.
func Simplify(f Formula) Formula {
	for {
		g, changed := rewrite(f)
		if !changed {
			return g
		}
		f = g
	}
}

// rewrite makes one bottom-up pass over f.
func rewrite(f Formula) (Formula, bool) {
	switch x := f.(type) {
	case Not:
		inner, changed := rewrite(x.Operand)
		if nn, ok := inner.(Not); ok {
			return nn.Operand, true
		}
		return Not{Operand: inner}, changed
	case Binary:
		l, cl := rewrite(x.Left)
		r, cr := rewrite(x.Right)
		ln, lok := l.(Not)
		rn, rok := r.(Not)
		if lok && rok {
			switch x.Op {
			case And:
				return Not{Operand: Binary{Op: Or, Left: ln.Operand, Right: rn.Operand}}, true
			case Or:
				return Not{Operand: Binary{Op: And, Left: ln.Operand, Right: rn.Operand}}, true
			case Xor:
				return Binary{Op: Xor, Left: ln.Operand, Right: rn.Operand}, true
			}
		}
		return Binary{Op: x.Op, Left: l, Right: r}, cl || cr
	default:
		return f, false
	}
}
