// Package units parses, compares, and formats physical units written in
// udunits syntax, as found in the units attributes of model output files.
//
// udunits syntax admits several spellings of the same unit string: powers
// may be written "s2", "s^2", or "s**2"; multiplication may be a space, a
// dot, or a hyphen followed by a letter; division is "/". Default udunits
// formatting (the style GCM output uses) writes products with spaces and
// negative powers instead of division, e.g. "kg m-2 s-1".
package units

import (
	"fmt"
	"strings"
)

// aliases maps unit spellings to the canonical symbol udunits prints.
var aliases = map[string]string{
	"day": "d", "days": "d",
	"hour": "h", "hours": "h", "hr": "h",
	"minute": "min", "minutes": "min",
	"second": "s", "seconds": "s", "sec": "s",
	"meter": "m", "metre": "m", "meters": "m", "metres": "m",
	"kilogram": "kg", "kilograms": "kg",
	"kelvin": "K",
	"degree": "degrees", "deg": "degrees",
}

func canonical(symbol string) string {
	if c, ok := aliases[symbol]; ok {
		return c
	}
	return symbol
}

// Unit is a product of base units raised to integer powers. Two Units are
// equal when their canonical factorizations match, so Parse("d") equals
// Parse("day") and Parse("kg m-3 s-2") equals Parse("kg / m3 / s^2").
// Factor order is remembered from first appearance so formatting keeps the
// conventional spelling of the source string.
type Unit struct {
	powers map[string]int
	order  []string
}

func (u *Unit) add(symbol string, power int) {
	if _, seen := u.powers[symbol]; !seen {
		u.order = append(u.order, symbol)
	}
	u.powers[symbol] += power
}

// Parse reads a udunits-syntax unit string.
func Parse(s string) (Unit, error) {
	u := Unit{powers: map[string]int{}}
	sign := 1
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ':
			i++
		case c == '.':
			// Multiplication.
			i++
		case c == '/':
			// Division applies to everything that follows.
			sign = -1
			i++
		case c == '-':
			// A hyphen between symbols is multiplication; a hyphen before a
			// digit is a negative power, which only follows a symbol.
			i++
		case isLetter(c):
			j := i
			for j < len(s) && isLetter(s[j]) {
				j++
			}
			symbol := canonical(s[i:j])
			power, next, err := parsePower(s, j)
			if err != nil {
				return Unit{}, fmt.Errorf("unit %q: %w", s, err)
			}
			u.add(symbol, sign*power)
			i = next
		case isDigit(c):
			// A bare leading "1", as in "1 / s". Any other number is a
			// scale factor we do not model.
			if s[i] != '1' || (i+1 < len(s) && isDigit(s[i+1])) {
				return Unit{}, fmt.Errorf("unit %q: unsupported scale factor", s)
			}
			i++
		default:
			return Unit{}, fmt.Errorf("unit %q: unexpected character %q", s, c)
		}
	}
	u.normalize()
	return u, nil
}

// MustParse is Parse for constant unit strings known to be valid.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// parsePower reads an optional exponent at s[i:]: "2", "^2", "**2", "-2",
// "^-2", "**-2". A hyphen followed by a letter is multiplication, not an
// exponent. Returns the power (1 if absent) and the index after it.
func parsePower(s string, i int) (int, int, error) {
	start := i
	if i < len(s) && s[i] == '^' {
		i++
	} else if i+1 < len(s) && s[i] == '*' && s[i+1] == '*' {
		i += 2
	}
	neg := false
	if i < len(s) && s[i] == '-' {
		if i+1 >= len(s) || !isDigit(s[i+1]) {
			// Multiplication hyphen, no exponent here.
			return 1, start, nil
		}
		neg = true
		i++
	}
	if i >= len(s) || !isDigit(s[i]) {
		if i != start {
			return 0, 0, fmt.Errorf("exponent operator with no digits at offset %d", start)
		}
		return 1, start, nil
	}
	n := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if neg {
		n = -n
	}
	return n, i, nil
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func (u *Unit) normalize() {
	kept := u.order[:0]
	for _, sym := range u.order {
		if u.powers[sym] == 0 {
			delete(u.powers, sym)
		} else {
			kept = append(kept, sym)
		}
	}
	u.order = kept
}

// Equal reports whether two units have the same canonical factorization.
// Factor order does not matter.
func (u Unit) Equal(v Unit) bool {
	if len(u.powers) != len(v.powers) {
		return false
	}
	for sym, p := range u.powers {
		if v.powers[sym] != p {
			return false
		}
	}
	return true
}

// Mul returns the product of two units. Multiplying "kg m-2 s-1" by
// "s d-1" yields "kg m-2 d-1", the unit change effected by scaling a
// per-second flux by the number of seconds in a day.
func (u Unit) Mul(v Unit) Unit {
	out := Unit{powers: make(map[string]int, len(u.powers)+len(v.powers))}
	for _, sym := range u.order {
		out.add(sym, u.powers[sym])
	}
	for _, sym := range v.order {
		out.add(sym, v.powers[sym])
	}
	out.normalize()
	return out
}

// String formats the unit in default udunits style: factors separated by
// spaces, positive powers before negative, power 1 implicit, e.g.
// "kg m-2 d-1". Within each group factors keep their original order, so a
// flux that came in as "kg m-2 s-1" goes out with m-2 still ahead of the
// time factor. The dimensionless unit formats as "1".
func (u Unit) String() string {
	if len(u.powers) == 0 {
		return "1"
	}
	var parts []string
	for _, sym := range u.order {
		if p := u.powers[sym]; p > 0 {
			if p == 1 {
				parts = append(parts, sym)
			} else {
				parts = append(parts, fmt.Sprintf("%s%d", sym, p))
			}
		}
	}
	for _, sym := range u.order {
		if p := u.powers[sym]; p < 0 {
			parts = append(parts, fmt.Sprintf("%s%d", sym, p))
		}
	}
	return strings.Join(parts, " ")
}
