// Package drl scans rule resources for the declarations the generator needs:
// the package, the rule unit, imports, rules and queries.
package drl

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Resource is the declaration summary of one DRL file.
type Resource struct {
	Path    string
	Package string
	Unit    string
	Imports []string
	Rules   []string
	Queries []string
}

// UnitName returns the rule unit of the resource. Resources without a unit
// declaration belong to the unit named after their package.
func (r *Resource) UnitName() string {
	if r.Unit != "" {
		return r.Unit
	}
	if i := strings.LastIndex(r.Package, "."); i >= 0 {
		return r.Package[i+1:]
	}
	return r.Package
}

type tokenKind int

const (
	identToken tokenKind = iota + 1
	stringToken
	punctToken
)

type token struct {
	kind tokenKind
	text string
	line int
}

// Scan reads the declarations of one DRL document.
func Scan(path string, data []byte) (*Resource, error) {
	tokens, err := lex(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", path)
	}

	res := &Resource{Path: path, Imports: []string{}, Rules: []string{}, Queries: []string{}}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != identToken {
			continue
		}
		next := func() (token, bool) {
			if i+1 >= len(tokens) {
				return token{}, false
			}
			i++
			return tokens[i], true
		}

		switch tok.text {
		case "package":
			name, ok := next()
			if !ok || name.kind != identToken {
				return nil, errors.Errorf("%s:%d: package name expected", path, tok.line)
			}
			res.Package = name.text
		case "unit":
			name, ok := next()
			if !ok || name.kind != identToken {
				return nil, errors.Errorf("%s:%d: unit name expected", path, tok.line)
			}
			res.Unit = name.text
		case "import":
			name, ok := next()
			if ok && name.kind == identToken && (name.text == "function" || name.text == "static") {
				name, ok = next()
			}
			if !ok || name.kind != identToken {
				return nil, errors.Errorf("%s:%d: import expected", path, tok.line)
			}
			res.Imports = append(res.Imports, name.text)
		case "rule", "query":
			name, ok := next()
			if !ok || (name.kind != identToken && name.kind != stringToken) {
				return nil, errors.Errorf("%s:%d: %s name expected", path, tok.line, tok.text)
			}
			if tok.text == "rule" {
				res.Rules = append(res.Rules, name.text)
			} else {
				res.Queries = append(res.Queries, name.text)
			}
			closed := false
			for i+1 < len(tokens) {
				i++
				if tokens[i].kind == identToken && tokens[i].text == "end" {
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.Errorf("%s:%d: %s %q is not terminated by end", path, tok.line, tok.text, name.text)
			}
		}
	}

	return res, nil
}

func lex(src string) ([]token, error) {
	out := make([]token, 0)
	line := 1
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\n':
			line++
		case unicode.IsSpace(c):
		case c == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			i--
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			start := line
			i += 2
			for ; i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/'); i++ {
				if runes[i] == '\n' {
					line++
				}
			}
			if i+1 >= len(runes) {
				return nil, errors.Errorf("line %d: unterminated comment", start)
			}
			i++
		case c == '"' || c == '\'':
			start := line
			var sb strings.Builder
			i++
			for ; i < len(runes) && runes[i] != c; i++ {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				if runes[i] == '\n' {
					line++
				}
				sb.WriteRune(runes[i])
			}
			if i >= len(runes) {
				return nil, errors.Errorf("line %d: unterminated string", start)
			}
			out = append(out, token{kind: stringToken, text: sb.String(), line: start})
		case isIdent(c):
			j := i
			for j < len(runes) && (isIdent(runes[j]) || runes[j] == '.' || runes[j] == '*') {
				j++
			}
			out = append(out, token{kind: identToken, text: strings.TrimSuffix(string(runes[i:j]), "."), line: line})
			i = j - 1
		default:
			out = append(out, token{kind: punctToken, text: string(c), line: line})
		}
	}
	return out, nil
}

func isIdent(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
