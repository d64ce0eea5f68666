package mql

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokDuration
	tokPipe
	tokLParen
	tokRParen
	tokComma
	tokOp // > >= < <= == !=

	// keywords
	tokFrom
	tokAvg
	tokSum
	tokMin
	tokMax
	tokCount
	tokGroup
	tokBy
	tokAlert
	tokValue
)

var keywords = map[string]tokenType{
	"from":  tokFrom,
	"avg":   tokAvg,
	"sum":   tokSum,
	"min":   tokMin,
	"max":   tokMax,
	"count": tokCount,
	"group": tokGroup,
	"by":    tokBy,
	"alert": tokAlert,
	"value": tokValue,
}

type token struct {
	typ  tokenType
	text string
	pos  int
	num  float64       // tokNumber
	dur  time.Duration // tokDuration
}

func (t token) describe() string {
	if t.typ == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q", t.text)
}

func isKeyword(typ tokenType) bool {
	return typ >= tokFrom && typ <= tokValue
}

func isAggFn(typ tokenType) bool {
	return typ == tokAvg || typ == tokSum || typ == tokMin || typ == tokMax || typ == tokCount
}

// identRune reports whether r may appear inside a metric or tag name.
// Metric names allow dots, slashes, dashes and underscores (sys/cpu.load).
func identRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '.' || r == '/' || r == '_' || r == '-'
}

// lex tokenizes query text. Lexical failures are returned as messages so
// the caller can surface them together with syntax errors.
func lex(text string) ([]token, []string) {
	var toks []token
	var errs []string
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '|':
			toks = append(toks, token{typ: tokPipe, text: "|", pos: i})
			i++
		case r == '(':
			toks = append(toks, token{typ: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{typ: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{typ: tokComma, text: ",", pos: i})
			i++
		case r == '>' || r == '<' || r == '=' || r == '!':
			start := i
			i++
			if i < len(runes) && runes[i] == '=' {
				i++
			}
			op := string(runes[start:i])
			if op == "=" || op == "!" {
				errs = append(errs, fmt.Sprintf("at %d: invalid operator %q", start, op))
				continue
			}
			toks = append(toks, token{typ: tokOp, text: op, pos: start})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			numEnd := i
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}
			text := string(runes[start:i])
			if i > numEnd {
				d, err := time.ParseDuration(text)
				if err != nil {
					errs = append(errs, fmt.Sprintf("at %d: invalid duration %q", start, text))
					continue
				}
				toks = append(toks, token{typ: tokDuration, text: text, pos: start, dur: d})
			} else {
				var f float64
				if _, err := fmt.Sscanf(text, "%g", &f); err != nil {
					errs = append(errs, fmt.Sprintf("at %d: invalid number %q", start, text))
					continue
				}
				toks = append(toks, token{typ: tokNumber, text: text, pos: start, num: f})
			}
		case identRune(r):
			start := i
			for i < len(runes) && identRune(runes[i]) {
				i++
			}
			text := string(runes[start:i])
			typ := tokIdent
			if kw, ok := keywords[strings.ToLower(text)]; ok {
				typ = kw
			}
			toks = append(toks, token{typ: typ, text: text, pos: start})
		default:
			errs = append(errs, fmt.Sprintf("at %d: unexpected character %q", i, string(r)))
			i++
		}
	}
	toks = append(toks, token{typ: tokEOF, pos: len(runes)})
	return toks, errs
}
