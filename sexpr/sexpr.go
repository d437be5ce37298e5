// Package sexpr adapts the external S-expression reader into the
// minimal tree shape the AST builder actually needs: atoms that are
// either an integer or a symbol, and nested lists of the same.
//
// Nothing downstream of this package ever imports t73f.de/r/sx
// directly; confining that dependency to one file means an upstream API
// change, or a mistaken guess about its surface, is a one-file fix.
package sexpr

import (
	"fmt"
	"io"
	"strings"

	"t73f.de/r/sx"
)

// Kind discriminates the three shapes a Node can take.
type Kind int

const (
	KindInt Kind = iota
	KindSymbol
	KindList
)

// Node is a single parsed form: either an atom (an integer or a bare
// symbol) or a list of child Nodes.
type Node struct {
	Kind   Kind
	Int    int64
	Symbol string
	List   []*Node
}

// String renders a Node back to source text, for error messages that
// need to show the offending form.
func (n *Node) String() string {
	switch n.Kind {
	case KindInt:
		return fmt.Sprintf("%d", n.Int)
	case KindSymbol:
		return n.Symbol
	default:
		parts := make([]string, len(n.List))
		for i, c := range n.List {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
}

// ReadAll parses src into one Node per top-level form.
func ReadAll(src string) ([]*Node, error) {
	reader := sx.NewReader(strings.NewReader(src))

	var nodes []*Node
	for {
		obj, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading s-expression: %w", err)
		}
		node, err := fromObject(obj)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// fromObject converts a single reader-produced object into a Node,
// walking cons cells into a flat list.
func fromObject(obj sx.Object) (*Node, error) {
	switch v := obj.(type) {
	case sx.Int64:
		return &Node{Kind: KindInt, Int: int64(v)}, nil
	case sx.Symbol:
		return &Node{Kind: KindSymbol, Symbol: string(v)}, nil
	case *sx.Pair:
		list, err := listFromPair(v)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindList, List: list}, nil
	default:
		if sx.IsNil(obj) {
			return &Node{Kind: KindList}, nil
		}
		return nil, fmt.Errorf("unsupported s-expression atom: %v", obj)
	}
}

// listFromPair walks a proper cons list, converting each element.
func listFromPair(p *sx.Pair) ([]*Node, error) {
	var list []*Node

	var cur sx.Object = p
	for {
		if sx.IsNil(cur) {
			return list, nil
		}
		pair, ok := cur.(*sx.Pair)
		if !ok {
			return nil, fmt.Errorf("improper s-expression list")
		}
		child, err := fromObject(pair.Car())
		if err != nil {
			return nil, err
		}
		list = append(list, child)
		cur = pair.Cdr()
	}
}
