package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/ebi/internal/apperr"
	"github.com/starford/ebi/internal/tag"
)

// Resolver maps a tag name to its ID.
type Resolver func(name string) (tag.ID, bool)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokXor
	tokNot
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokString:
		return "tag name"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokXor:
		return "XOR"
	case tokNot:
		return "NOT"
	}
	return "token"
}

var keywords = map[string]tokenKind{
	"AND": tokAnd,
	"OR":  tokOr,
	"XOR": tokXor,
	"NOT": tokNot,
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func syntaxErr(pos int, format string, args ...any) error {
	return fmt.Errorf("query: %w at offset %d: %s", apperr.ErrSyntax, pos, fmt.Sprintf(format, args...))
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			return nil, syntaxErr(i, "invalid UTF-8")
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case r == '"':
			s, n, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i += n
		default:
			start := i
			for i < len(input) {
				r, size := utf8.DecodeRuneInString(input[i:])
				if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' {
					break
				}
				i += size
			}
			word := input[start:i]
			kind, ok := keywords[word]
			if !ok {
				return nil, syntaxErr(start, "unexpected %q (tag names must be quoted)", word)
			}
			toks = append(toks, token{kind: kind, text: word, pos: start})
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(input)}), nil
}

// lexString reads a double-quoted literal starting at input[start]. A
// backslash escapes the next character.
func lexString(input string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		c := input[i]
		switch c {
		case '"':
			if b.Len() == 0 {
				return "", 0, syntaxErr(start, "empty tag name")
			}
			return b.String(), i + 1 - start, nil
		case '\\':
			if i+1 >= len(input) {
				return "", 0, syntaxErr(i, "dangling escape")
			}
			b.WriteByte(input[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, syntaxErr(start, "unterminated string")
}

type parser struct {
	toks     []token
	pos      int
	depth    int
	maxDepth int
	resolve  Resolver
}

// Parse turns input into a Formula. Names that resolve yield propositions
// with a tag; the others are kept unresolved. A formula nested deeper than
// maxDepth is rejected with apperr.ErrTooDeep; maxDepth <= 0 disables the limit.
func Parse(input string, resolve Resolver, maxDepth int) (Formula, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, maxDepth: maxDepth, resolve: resolve}
	if p.peek().kind == tokEOF {
		return nil, syntaxErr(0, "empty query")
	}
	f, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErr(t.pos, "unexpected %s", t.kind)
	}
	if maxDepth > 0 && Depth(f) > maxDepth {
		return nil, fmt.Errorf("query: %w: limit is %d", apperr.ErrTooDeep, maxDepth)
	}
	return f, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// enter guards the recursive productions against adversarial nesting.
func (p *parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return fmt.Errorf("query: %w: limit is %d", apperr.ErrTooDeep, p.maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) binary(kind tokenKind, op Op, operand func() (Formula, error)) (Formula, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == kind {
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) expr() (Formula, error) {
	return p.binary(tokOr, Or, p.xor)
}

func (p *parser) xor() (Formula, error) {
	return p.binary(tokXor, Xor, p.and)
}

func (p *parser) and() (Formula, error) {
	return p.binary(tokAnd, And, p.unary)
}

func (p *parser) unary() (Formula, error) {
	if p.peek().kind != tokNot {
		return p.primary()
	}
	p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return Not{Operand: operand}, nil
}

func (p *parser) primary() (Formula, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		prop := Proposition{Name: t.text}
		if p.resolve != nil {
			if id, ok := p.resolve(t.text); ok {
				prop.Tag = id
			}
		}
		return prop, nil
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		f, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, syntaxErr(closing.pos, "expected ')', found %s", closing.kind)
		}
		return f, nil
	default:
		return nil, syntaxErr(t.pos, "expected tag name or '(', found %s", t.kind)
	}
}
