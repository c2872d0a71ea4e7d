// Package locator parses candidate locator expressions into a closed set of
// constructor forms. Candidates come from an untrusted language model, so the
// grammar is parsed into plain data and dispatched to the browser capability;
// nothing in a candidate string is ever evaluated as code.
package locator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one constructor form of the grammar.
type Kind int

const (
	KindSelector Kind = iota // raw CSS/engine selector
	KindRole                 // ARIA role, optional accessible name
	KindText                 // visible text match
	KindLabel                // form-control label match
	KindTestID               // data-testid match
)

func (k Kind) String() string {
	switch k {
	case KindRole:
		return "role"
	case KindText:
		return "text"
	case KindLabel:
		return "label"
	case KindTestID:
		return "testid"
	default:
		return "selector"
	}
}

// ErrInvalid marks a candidate string that does not fit the grammar.
// Healing treats it as a failed candidate and advances to the next one.
var ErrInvalid = errors.New("invalid locator expression")

// Locator is one parsed expression. Value holds the role, text, label,
// test id or raw selector depending on Kind. Name is the accessible-name
// option of the role form; Exact applies to role, text and label forms.
type Locator struct {
	Kind  Kind
	Value string
	Name  string
	Exact bool
}

// String renders the canonical constructor form.
func (l Locator) String() string {
	var opts []string
	if l.Name != "" {
		opts = append(opts, fmt.Sprintf("name: '%s'", escape(l.Name)))
	}
	if l.Exact {
		opts = append(opts, "exact: true")
	}
	suffix := ""
	if len(opts) > 0 {
		suffix = ", {" + strings.Join(opts, ", ") + "}"
	}

	var ctor string
	switch l.Kind {
	case KindRole:
		ctor = "byRole"
	case KindText:
		ctor = "byText"
	case KindLabel:
		ctor = "byLabel"
	case KindTestID:
		ctor = "byTestId"
	default:
		ctor = "bySelector"
	}
	return fmt.Sprintf("%s('%s'%s)", ctor, escape(l.Value), suffix)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// Parse interprets one candidate string. Constructor calls
// (byRole/byText/byLabel/byTestId/bySelector, case-insensitive, with an
// optional "get" or "page." prefix) are parsed into their form; any other
// single-line non-empty string is taken as a raw selector. Call-shaped
// strings that name an unknown constructor, or calls with malformed
// arguments, are rejected with ErrInvalid.
func Parse(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	if strings.ContainsAny(s, "\n\r") {
		return Locator{}, fmt.Errorf("%w: multiple lines", ErrInvalid)
	}

	trimmed := strings.TrimPrefix(s, "page.")

	name, inner, ok := splitCall(trimmed)
	if !ok {
		// Raw selector form. Selectors legitimately contain parentheses
		// (e.g. :nth-child(2)), so only a leading-identifier call shape
		// is treated as a constructor.
		return Locator{Kind: KindSelector, Value: s}, nil
	}

	kind, ok := constructorKind(name)
	if !ok {
		return Locator{}, fmt.Errorf("%w: unknown constructor %q", ErrInvalid, name)
	}

	args, err := splitTopLevel(inner)
	if err != nil {
		return Locator{}, err
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Locator{}, fmt.Errorf("%w: %s requires an argument", ErrInvalid, name)
	}
	if len(args) > 2 {
		return Locator{}, fmt.Errorf("%w: too many arguments to %s", ErrInvalid, name)
	}

	value, err := unquote(args[0])
	if err != nil {
		return Locator{}, err
	}
	if value == "" {
		return Locator{}, fmt.Errorf("%w: %s requires a non-empty argument", ErrInvalid, name)
	}

	loc := Locator{Kind: kind, Value: value}
	if len(args) == 2 {
		optName, exact, err := parseOptions(args[1])
		if err != nil {
			return Locator{}, err
		}
		switch kind {
		case KindRole:
			loc.Name = optName
			loc.Exact = exact
		case KindText, KindLabel:
			if optName != "" {
				return Locator{}, fmt.Errorf("%w: option \"name\" is only valid for byRole", ErrInvalid)
			}
			loc.Exact = exact
		default:
			return Locator{}, fmt.Errorf("%w: %s takes no options", ErrInvalid, name)
		}
	}
	return loc, nil
}

// splitCall recognizes `ident(...)` where the identifier starts the string
// and the final rune closes the argument list.
func splitCall(s string) (name, inner string, ok bool) {
	i := 0
	for i < len(s) && (isAlpha(s[i]) || (i > 0 && isDigit(s[i]))) {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	rest := strings.TrimLeft(s[i:], " \t")
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", "", false
	}
	return s[:i], rest[1 : len(rest)-1], true
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func constructorKind(name string) (Kind, bool) {
	switch strings.TrimPrefix(strings.ToLower(name), "get") {
	case "byrole":
		return KindRole, true
	case "bytext":
		return KindText, true
	case "bylabel":
		return KindLabel, true
	case "bytestid":
		return KindTestID, true
	case "byselector", "locator":
		return KindSelector, true
	}
	return 0, false
}

// splitTopLevel splits on commas outside quotes and braces.
func splitTopLevel(s string) ([]string, error) {
	var (
		parts []string
		start int
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '{' || c == '(':
			depth++
		case c == '}' || c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced %q", ErrInvalid, string(c))
			}
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", ErrInvalid)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced braces", ErrInvalid)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return append(parts, s[start:]), nil
}

// unquote strips one level of single or double quotes, resolving backslash
// escapes. Bare words are limited to identifier-ish characters so that a
// stray expression cannot masquerade as an argument.
func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') {
		if s[len(s)-1] != s[0] {
			return "", fmt.Errorf("%w: unterminated quote", ErrInvalid)
		}
		var b strings.Builder
		body := s[1 : len(s)-1]
		for i := 0; i < len(body); i++ {
			if body[i] == '\\' && i+1 < len(body) {
				i++
			}
			b.WriteByte(body[i])
		}
		return b.String(), nil
	}
	for i := 0; i < len(s); i++ {
		if !isAlpha(s[i]) && !isDigit(s[i]) && s[i] != '-' {
			return "", fmt.Errorf("%w: malformed argument %q", ErrInvalid, s)
		}
	}
	return s, nil
}

// parseOptions reads a `{name: 'x', exact: true}` object.
func parseOptions(s string) (name string, exact bool, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return "", false, fmt.Errorf("%w: options must be an object, got %q", ErrInvalid, s)
	}
	pairs, err := splitTopLevel(s[1 : len(s)-1])
	if err != nil {
		return "", false, err
	}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, ":")
		if !found {
			return "", false, fmt.Errorf("%w: malformed option %q", ErrInvalid, strings.TrimSpace(pair))
		}
		v, err := unquote(value)
		if err != nil {
			return "", false, err
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			name = v
		case "exact":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return "", false, fmt.Errorf("%w: exact must be a boolean, got %q", ErrInvalid, v)
			}
			exact = b
		default:
			return "", false, fmt.Errorf("%w: unknown option %q", ErrInvalid, strings.TrimSpace(key))
		}
	}
	return name, exact, nil
}
