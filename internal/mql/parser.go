package mql

import (
	"errors"
	"fmt"
)

// predictionMode selects how the parser resolves alternatives.
//
// modeFast predicts each production from the next token only and gives up
// with a hard failure when no alternative is viable. modeExhaustive also
// admits keywords in name positions and resynchronizes after errors so it
// can collect every syntax problem in one pass.
type predictionMode int

const (
	modeFast predictionMode = iota
	modeExhaustive
)

// errNoViableAlt marks a hard prediction failure, as opposed to a simple
// token mismatch that the parser records and recovers from.
var errNoViableAlt = errors.New("no viable alternative")

type parser struct {
	toks []token
	pos  int
	mode predictionMode
	errs []string
}

func newParser(toks []token, mode predictionMode) *parser {
	return &parser{toks: toks, mode: mode}
}

// Parse parses alert query text into a statement.
//
// Parsing is attempted first with a fast predictive strategy; if that
// fails outright, all parser state is discarded, the token stream is
// rewound, and the input is reparsed with the exhaustive strategy. The
// retry is invisible to callers. If either pass collects syntax errors,
// a *ParseError carrying the messages is returned.
func Parse(text string) (*Statement, error) {
	toks, lexErrs := lex(text)

	p := newParser(toks, modeFast)
	p.errs = append(p.errs, lexErrs...)
	stmt, err := p.parseStatement()
	if err != nil {
		p = newParser(toks, modeExhaustive)
		p.errs = append(p.errs, lexErrs...)
		stmt, err = p.parseStatement()
	}

	if err != nil {
		p.errs = append(p.errs, err.Error())
	}
	if len(p.errs) > 0 {
		return nil, &ParseError{Messages: p.errs}
	}
	stmt.Text = text
	return stmt, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

// expect consumes a token of the given type, or records a syntax error and
// leaves the position unchanged so the caller can carry on.
func (p *parser) expect(typ tokenType, what string) (token, bool) {
	t := p.peek()
	if t.typ == typ {
		return p.next(), true
	}
	p.errs = append(p.errs, fmt.Sprintf("at %d: expected %s, found %s", t.pos, what, t.describe()))
	return t, false
}

func (p *parser) noViable(what string, t token) error {
	return fmt.Errorf("%w: at %d: cannot parse %s from %s", errNoViableAlt, t.pos, what, t.describe())
}

// statement := name ("from" DURATION)? ("|" stage)* EOF
func (p *parser) parseStatement() (*Statement, error) {
	stmt := &Statement{}

	metric, err := p.parseName("metric name")
	if err != nil {
		return nil, err
	}
	stmt.Metric = metric

	if p.peek().typ == tokFrom {
		p.next()
		if t, ok := p.expect(tokDuration, "duration"); ok {
			stmt.Window = t.dur
		}
	}

	for p.peek().typ == tokPipe {
		p.next()
		if err := p.parseStage(stmt); err != nil {
			return nil, err
		}
	}

	if t := p.peek(); t.typ != tokEOF {
		p.errs = append(p.errs, fmt.Sprintf("at %d: extraneous input %s", t.pos, t.describe()))
	}
	return stmt, nil
}

// parseName parses a metric or field name. The fast strategy requires a
// plain identifier; the exhaustive one also admits keywords as names, which
// is where pathological-but-valid queries like "avg | avg(5m)" land.
func (p *parser) parseName(what string) (string, error) {
	t := p.peek()
	switch {
	case t.typ == tokIdent:
		p.next()
		return t.text, nil
	case p.mode == modeExhaustive && isKeyword(t.typ):
		p.next()
		return t.text, nil
	default:
		return "", p.noViable(what, t)
	}
}

func (p *parser) parseStage(stmt *Statement) error {
	t := p.peek()
	switch {
	case isAggFn(t.typ):
		return p.parseAggStage(stmt)
	case t.typ == tokGroup:
		return p.parseGroupStage(stmt)
	case t.typ == tokAlert:
		return p.parseAlertStage(stmt)
	default:
		if p.mode == modeFast {
			return p.noViable("pipeline stage", t)
		}
		p.errs = append(p.errs, fmt.Sprintf("at %d: unknown pipeline stage %s", t.pos, t.describe()))
		p.sync()
		return nil
	}
}

// aggStage := FN "(" DURATION ")"
func (p *parser) parseAggStage(stmt *Statement) error {
	fn := p.next()
	if _, ok := p.expect(tokLParen, `"("`); !ok {
		p.sync()
		return nil
	}
	var stage Stage
	stage.Fn = fn.text
	if t, ok := p.expect(tokDuration, "duration"); ok {
		stage.Window = t.dur
	}
	p.expect(tokRParen, `")"`)
	stmt.Stages = append(stmt.Stages, stage)
	return nil
}

// groupStage := "group" "by" name ("," name)*
func (p *parser) parseGroupStage(stmt *Statement) error {
	p.next()
	p.expect(tokBy, `"by"`)
	for {
		field, err := p.parseName("group by field")
		if err != nil {
			if p.mode == modeFast {
				return err
			}
			p.errs = append(p.errs, err.Error())
			p.sync()
			return nil
		}
		stmt.GroupBy = append(stmt.GroupBy, field)
		if p.peek().typ != tokComma {
			return nil
		}
		p.next()
	}
}

// alertStage := "alert" "(" condition ("," condition)* ")"
func (p *parser) parseAlertStage(stmt *Statement) error {
	p.next()
	if _, ok := p.expect(tokLParen, `"("`); !ok {
		p.sync()
		return nil
	}
	for {
		cond, err := p.parseCondition()
		if err != nil {
			if p.mode == modeFast {
				return err
			}
			p.errs = append(p.errs, err.Error())
			p.sync()
			return nil
		}
		stmt.Conditions = append(stmt.Conditions, cond)
		if p.peek().typ != tokComma {
			break
		}
		p.next()
	}
	p.expect(tokRParen, `")"`)
	return nil
}

// condition := "value" OP NUMBER
//
// Only the aggregated sample value can be compared against a threshold;
// tag fields carry strings, so anything else is a syntax error rather
// than a condition that silently compares the value anyway.
func (p *parser) parseCondition() (Condition, error) {
	var cond Condition
	t := p.peek()
	if t.typ != tokValue {
		return cond, fmt.Errorf("at %d: alert conditions compare value, found %s", t.pos, t.describe())
	}
	p.next()
	cond.Field = "value"
	if t, ok := p.expect(tokOp, "comparison operator"); ok {
		cond.Op = CompareOp(t.text)
	}
	if t, ok := p.expect(tokNumber, "threshold"); ok {
		cond.Threshold = t.num
	}
	return cond, nil
}

// sync skips ahead to the next pipe or end of input after an error, so the
// exhaustive pass can report problems in later stages too.
func (p *parser) sync() {
	for {
		t := p.peek()
		if t.typ == tokEOF || t.typ == tokPipe {
			return
		}
		p.next()
	}
}
