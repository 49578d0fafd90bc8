package checks

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// Rule expressions are deliberately small: column names, numeric literals,
// arithmetic (+ - * /), parentheses and a single comparison. That covers the
// equation and heuristic grammar rule packs actually use without dragging a
// scripting engine into the hot path.

type token struct {
	kind string // ident, num, op, lparen, rparen
	text string
}

func tokenize(expr string) ([]token, error) {
	var out []token
	i := 0
	for i < len(expr) {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			out = append(out, token{"lparen", "("})
			i++
		case c == ')':
			out = append(out, token{"rparen", ")"})
			i++
		case strings.ContainsRune("+-*/", c):
			out = append(out, token{"op", string(c)})
			i++
		case strings.ContainsRune("<>=!", c):
			op := string(c)
			if i+1 < len(expr) && expr[i+1] == '=' {
				op += "="
				i++
			}
			i++
			if op == "=" || op == "!" {
				return nil, fmt.Errorf("unexpected %q in expression", op)
			}
			out = append(out, token{"op", op})
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(expr) && (unicode.IsDigit(rune(expr[j])) || expr[j] == '.' ||
				expr[j] == 'e' || expr[j] == 'E' ||
				((expr[j] == '+' || expr[j] == '-') && j > i && (expr[j-1] == 'e' || expr[j-1] == 'E'))) {
				j++
			}
			out = append(out, token{"num", expr[i:j]})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(expr) && (unicode.IsLetter(rune(expr[j])) || unicode.IsDigit(rune(expr[j])) || expr[j] == '_') {
				j++
			}
			out = append(out, token{"ident", expr[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in expression", c)
		}
	}
	return out, nil
}

func precedence(op string) int {
	switch op {
	case "*", "/":
		return 3
	case "+", "-":
		return 2
	default: // comparisons
		return 1
	}
}

// toRPN converts a token stream to reverse polish notation.
func toRPN(tokens []token) ([]token, error) {
	var out, stack []token
	for _, t := range tokens {
		switch t.kind {
		case "num", "ident":
			out = append(out, t)
		case "op":
			for len(stack) > 0 && stack[len(stack)-1].kind == "op" &&
				precedence(stack[len(stack)-1].text) >= precedence(t.text) {
				out = append(out, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, t)
		case "lparen":
			stack = append(stack, t)
		case "rparen":
			for len(stack) > 0 && stack[len(stack)-1].kind != "lparen" {
				out = append(out, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
			stack = stack[:len(stack)-1]
		}
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.kind == "lparen" {
			return nil, fmt.Errorf("unbalanced parentheses")
		}
		out = append(out, top)
		stack = stack[:len(stack)-1]
	}
	return out, nil
}

// exprIdents lists the identifiers an expression references.
func exprIdents(expr string) ([]string, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]struct{})
	for _, t := range tokens {
		if t.kind != "ident" {
			continue
		}
		if _, ok := seen[t.text]; ok {
			continue
		}
		seen[t.text] = struct{}{}
		out = append(out, t.text)
	}
	return out, nil
}

// evalArith evaluates an arithmetic expression rowwise over the given rows.
// Identifiers resolve to column cells; cells that do not convert become NaN.
func evalArith(ds *domain.Dataset, rows []int, expr string) ([]float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	rpn, err := toRPN(tokens)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		v, err := evalRPNRow(ds, row, rpn, false)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// evalPredicate evaluates a comparison expression rowwise. Comparisons with
// NaN operands are false, matching numeric filter semantics.
func evalPredicate(ds *domain.Dataset, rows []int, expr string) ([]bool, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	rpn, err := toRPN(tokens)
	if err != nil {
		return nil, err
	}
	hasCmp := false
	for _, t := range rpn {
		if t.kind == "op" && precedence(t.text) == 1 {
			hasCmp = true
		}
	}
	if !hasCmp {
		return nil, fmt.Errorf("predicate %q has no comparison", expr)
	}
	out := make([]bool, len(rows))
	for i, row := range rows {
		v, err := evalRPNRow(ds, row, rpn, true)
		if err != nil {
			return nil, err
		}
		out[i] = v != 0
	}
	return out, nil
}

// evalRPNRow runs the RPN program against one row. Comparison results are
// encoded as 1/0 so they can only appear at the top of the stack.
func evalRPNRow(ds *domain.Dataset, row int, rpn []token, allowCmp bool) (float64, error) {
	var stack []float64
	push := func(v float64) { stack = append(stack, v) }
	pop2 := func() (float64, float64, error) {
		if len(stack) < 2 {
			return 0, 0, fmt.Errorf("malformed expression")
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		return a, b, nil
	}
	for _, t := range rpn {
		switch t.kind {
		case "num":
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return 0, fmt.Errorf("bad literal %q: %w", t.text, err)
			}
			push(f)
		case "ident":
			if !ds.HasColumn(t.text) {
				return 0, fmt.Errorf("unknown column %q", t.text)
			}
			if f, ok := domain.Float(ds.Rows[row][t.text]); ok {
				push(f)
			} else {
				push(math.NaN())
			}
		case "op":
			a, b, err := pop2()
			if err != nil {
				return 0, err
			}
			switch t.text {
			case "+":
				push(a + b)
			case "-":
				push(a - b)
			case "*":
				push(a * b)
			case "/":
				push(a / b)
			default:
				if !allowCmp {
					return 0, fmt.Errorf("comparison %q not allowed here", t.text)
				}
				push(boolToFloat(compare(t.text, a, b)))
			}
		}
	}
	if len(stack) != 1 {
		return 0, fmt.Errorf("malformed expression")
	}
	return stack[0], nil
}

func compare(op string, a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
