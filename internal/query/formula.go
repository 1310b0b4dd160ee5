// Package query parses boolean tag expressions and evaluates them against a
// shelf with set algebra.
//
// Grammar, loosest binding first:
//
//	expr    = xor { "OR" xor }
//	xor     = and { "XOR" and }
//	and     = unary { "AND" unary }
//	unary   = "NOT" unary | primary
//	primary = STRING | "(" expr ")"
//
// Keywords are case-sensitive and tag names are double-quoted string
// literals. Whitespace is insignificant.
package query

import (
	"strconv"

	"github.com/starford/ebi/internal/tag"
)

// Op is a binary connective.
type Op int

const (
	And Op = iota
	Or
	Xor
)

func (o Op) String() string {
	switch o {
	case And:
		return "AND"
	case Or:
		return "OR"
	case Xor:
		return "XOR"
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// Formula is a node of a parsed query.
type Formula interface {
	String() string
	formula()
}

// Proposition is a leaf naming one tag. Tag is zero when the name did not
// resolve at parse time; evaluating such a leaf fails with apperr.ErrKey.
type Proposition struct {
	Name string
	Tag  tag.ID
}

// Binary combines two formulas.
type Binary struct {
	Op    Op
	Left  Formula
	Right Formula
}

// Not negates a formula.
type Not struct {
	Operand Formula
}

func (Proposition) formula() {}
func (Binary) formula()      {}
func (Not) formula()         {}

func (p Proposition) String() string { return strconv.Quote(p.Name) }
func (b Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}
func (n Not) String() string { return "NOT " + n.Operand.String() }

// Depth returns the nesting depth of f; a single proposition has depth 1.
func Depth(f Formula) int {
	switch x := f.(type) {
	case Not:
		return 1 + Depth(x.Operand)
	case Binary:
		return 1 + max(Depth(x.Left), Depth(x.Right))
	default:
		return 1
	}
}
