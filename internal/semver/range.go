package semver

import (
	"fmt"
	"strings"
)

// Range constrains a set of versions. Exactly one form is populated per
// instance: an exact version, a textual operator expression, or a min/max
// window. Satisfies dispatches on whichever form is present, checking exact
// first, then expression, then window.
type Range struct {
	exact *Version
	expr  string
	min   *Version
	max   *Version
}

// Exact returns a range satisfied only by versions comparing equal to v.
func Exact(v Version) Range {
	return Range{exact: &v}
}

// Expr returns a range backed by a textual expression: `^`, `~`, `>=`, `<=`,
// `>`, `<`, or a bare exact version. The expression is evaluated lazily;
// malformed operand text surfaces as ErrInvalidVersion from Satisfies.
func Expr(expression string) Range {
	return Range{expr: expression}
}

// Window returns a range bounded below by min (inclusive) and above by max
// (exclusive). A nil bound is unbounded on that side.
func Window(min, max *Version) Range {
	return Range{min: min, max: max}
}

// IsExpr reports whether the range is expression-backed.
func (r Range) IsExpr() bool { return r.exact == nil && r.expr != "" }

// Satisfies reports whether v falls inside the range.
// Expression ranges propagate ErrInvalidVersion for malformed operand text.
func (r Range) Satisfies(v Version) (bool, error) {
	switch {
	case r.exact != nil:
		return v.Equal(*r.exact), nil
	case r.expr != "":
		return satisfiesExpr(v, r.expr)
	default:
		if r.min != nil && v.LessThan(*r.min) {
			return false, nil
		}
		if r.max != nil && v.Compare(*r.max) >= 0 {
			return false, nil
		}
		return true, nil
	}
}

// Validate parses whatever text the range carries, surfacing malformed
// expressions without needing a candidate version.
func (r Range) Validate() error {
	if r.expr == "" {
		return nil
	}
	_, operand := splitExprOperator(r.expr)
	_, err := Parse(operand)
	return err
}

// String renders the range for conflict reports and log output.
func (r Range) String() string {
	switch {
	case r.exact != nil:
		return r.exact.String()
	case r.expr != "":
		return r.expr
	}
	min, max := "", ""
	if r.min != nil {
		min = r.min.String()
	}
	if r.max != nil {
		max = r.max.String()
	}
	return fmt.Sprintf("[%s, %s)", min, max)
}

// splitExprOperator splits a trimmed expression into its operator prefix and
// operand text. Two-character operators are checked before one-character ones.
func splitExprOperator(expression string) (op, operand string) {
	expr := strings.TrimSpace(expression)
	for _, candidate := range []string{">=", "<=", ">", "<", "^", "~"} {
		if strings.HasPrefix(expr, candidate) {
			return candidate, strings.TrimSpace(expr[len(candidate):])
		}
	}
	return "", expr
}

func satisfiesExpr(v Version, expression string) (bool, error) {
	op, operand := splitExprOperator(expression)
	base, err := Parse(operand)
	if err != nil {
		return false, err
	}

	switch op {
	case "^":
		return satisfiesCaret(v, base), nil
	case "~":
		return v.Compare(base) >= 0 && v.major == base.major && v.minor == base.minor, nil
	case ">=":
		return v.Compare(base) >= 0, nil
	case "<=":
		return v.Compare(base) <= 0, nil
	case ">":
		return v.Compare(base) > 0, nil
	case "<":
		return v.Compare(base) < 0, nil
	default:
		return v.Equal(base), nil
	}
}

// satisfiesCaret implements `^` compatibility: no change to the leftmost
// non-zero component. `^0.0.Z` degenerates to an exact patch pin.
func satisfiesCaret(v, base Version) bool {
	if v.Compare(base) < 0 {
		return false
	}
	switch {
	case base.major > 0:
		return v.major == base.major
	case base.minor > 0:
		return v.major == 0 && v.minor == base.minor
	default:
		return v.major == base.major && v.minor == base.minor && v.patch == base.patch
	}
}
