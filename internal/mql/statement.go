// Package mql provides parsing of alert query text into executable statements.
//
// A query selects a metric, optionally pipes it through aggregation stages,
// and declares the alert conditions that fire triggers:
//
//	sys/cpu.load from 15m | avg(5m) | group by host | alert(value > 0.8)
package mql

import (
	"fmt"
	"time"
)

// CompareOp is a comparison operator in an alert condition.
type CompareOp string

const (
	OpGT CompareOp = ">"
	OpGE CompareOp = ">="
	OpLT CompareOp = "<"
	OpLE CompareOp = "<="
	OpEQ CompareOp = "=="
	OpNE CompareOp = "!="
)

// Stage is one aggregation step in the query pipeline.
type Stage struct {
	Fn     string        // avg, sum, min, max, count
	Window time.Duration // sampling window for the aggregation
}

// Condition is a single alert condition evaluated against aggregated values.
type Condition struct {
	Field     string // always "value"; the parser rejects anything else
	Op        CompareOp
	Threshold float64
}

// Holds reports whether a value violates the condition (i.e. the alert fires).
func (c Condition) Holds(value float64) bool {
	switch c.Op {
	case OpGT:
		return value > c.Threshold
	case OpGE:
		return value >= c.Threshold
	case OpLT:
		return value < c.Threshold
	case OpLE:
		return value <= c.Threshold
	case OpEQ:
		return value == c.Threshold
	case OpNE:
		return value != c.Threshold
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Threshold)
}

// Statement is the executable form of an alert query.
type Statement struct {
	Text       string        // original query text
	Metric     string        // metric selector
	Window     time.Duration // query window from the "from" clause, 0 = engine default
	Stages     []Stage
	GroupBy    []string
	Conditions []Condition
}

// ParseError carries the syntax error messages collected while parsing.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	if len(e.Messages) == 0 {
		return "query parse failed"
	}
	return fmt.Sprintf("query parse failed: %s", e.Messages[0])
}
