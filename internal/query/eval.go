package query

import (
	"fmt"

	"github.com/starford/ebi/internal/apperr"
	"github.com/starford/ebi/internal/shelf"
	"github.com/starford/ebi/internal/tag"
)

// Index is the read surface a formula is evaluated against. shelf.View
// satisfies it.
type Index interface {
	Retrieve(t tag.ID) shelf.FileSet
	All() shelf.FileSet
	Files(set shelf.FileSet) []*shelf.File
}

var _ Index = shelf.View{}

type evaluator struct {
	idx      Index
	maxDepth int
	all      shelf.FileSet
}

// Eval computes the set of files matching f. Sets returned by idx are never
// modified. maxDepth <= 0 disables the depth limit.
func Eval(f Formula, idx Index, maxDepth int) (shelf.FileSet, error) {
	e := &evaluator{idx: idx, maxDepth: maxDepth}
	return e.eval(f, 1)
}

func (e *evaluator) universe() shelf.FileSet {
	if e.all == nil {
		e.all = e.idx.All()
	}
	return e.all
}

func (e *evaluator) eval(f Formula, depth int) (shelf.FileSet, error) {
	if e.maxDepth > 0 && depth > e.maxDepth {
		return nil, fmt.Errorf("query: %w: limit is %d", apperr.ErrTooDeep, e.maxDepth)
	}
	switch x := f.(type) {
	case Proposition:
		if x.Tag == 0 {
			return nil, fmt.Errorf("query: %w: unknown tag %q", apperr.ErrKey, x.Name)
		}
		return e.idx.Retrieve(x.Tag), nil
	case Not:
		s, err := e.eval(x.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		return e.universe().Difference(s), nil
	case Binary:
		if x.Op == And {
			// a AND NOT b is a − b; skip materializing the complement.
			if rn, ok := x.Right.(Not); ok {
				return e.difference(x.Left, rn.Operand, depth)
			}
			if ln, ok := x.Left.(Not); ok {
				return e.difference(x.Right, ln.Operand, depth)
			}
		}
		l, err := e.eval(x.Left, depth+1)
		if err != nil {
			return nil, err
		}
		r, err := e.eval(x.Right, depth+1)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case And:
			return l.Intersect(r), nil
		case Or:
			return l.Union(r), nil
		case Xor:
			return l.SymmetricDifference(r), nil
		}
		return nil, fmt.Errorf("query: unknown operator %v", x.Op)
	default:
		return nil, fmt.Errorf("query: unknown formula %T", f)
	}
}

func (e *evaluator) difference(keep, drop Formula, depth int) (shelf.FileSet, error) {
	k, err := e.eval(keep, depth+1)
	if err != nil {
		return nil, err
	}
	d, err := e.eval(drop, depth+2)
	if err != nil {
		return nil, err
	}
	return k.Difference(d), nil
}

// Run parses, simplifies, and evaluates input, returning the matching files
// in the requested order.
func Run(input string, resolve Resolver, idx Index, order Order, maxDepth int) ([]*shelf.File, error) {
	f, err := Parse(input, resolve, maxDepth)
	if err != nil {
		return nil, err
	}
	set, err := Eval(Simplify(f), idx, maxDepth)
	if err != nil {
		return nil, err
	}
	return Materialize(idx.Files(set), order), nil
}
