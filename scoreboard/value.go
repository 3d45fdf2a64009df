package scoreboard

import (
	"encoding/json"
	"strconv"
)

type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindInt
	KindText
)

// Value is one output cell: empty, an integer or free text.
type Value struct {
	Kind ValueKind
	Int  int
	Text string
}

func IntValue(n int) Value {
	return Value{Kind: KindInt, Int: n}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.Int)
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// Column holds one value per sheet row, aligned with the participant list.
type Column struct {
	Values []Value `json:"values"`
}

func emptyColumn(rows int) Column {
	return Column{Values: make([]Value, rows)}
}
