package graph

import (
	"encoding/json"
	"fmt"
	"slices"
)

// PayloadKind tags the type-specific data a node carries.
type PayloadKind string

const (
	KindPlain PayloadKind = "plain"
	KindMedia PayloadKind = "media"
	KindCode  PayloadKind = "code"
	KindTable PayloadKind = "table"
	KindList  PayloadKind = "list"
	KindTask  PayloadKind = "task"
)

// Payload is the sum type over node kinds. Each variant carries only the
// fields relevant to it; callers switch on the concrete type.
type Payload interface {
	Kind() PayloadKind
	clonePayload() Payload
}

type PlainPayload struct {
	Description string `json:"description,omitempty"`
}

type MediaPayload struct {
	URL     string  `json:"url"`
	Caption string  `json:"caption,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
}

type CodePayload struct {
	Language string `json:"language,omitempty"`
	Source   string `json:"source"`
}

type TablePayload struct {
	Rows [][]string `json:"rows"`
}

type ListPayload struct {
	Items []string `json:"items"`
}

type TaskPayload struct {
	Description string `json:"description,omitempty"`
	Due         string `json:"due,omitempty"`
}

func (PlainPayload) Kind() PayloadKind { return KindPlain }
func (MediaPayload) Kind() PayloadKind { return KindMedia }
func (CodePayload) Kind() PayloadKind  { return KindCode }
func (TablePayload) Kind() PayloadKind { return KindTable }
func (ListPayload) Kind() PayloadKind  { return KindList }
func (TaskPayload) Kind() PayloadKind  { return KindTask }

func (p PlainPayload) clonePayload() Payload { return p }
func (p MediaPayload) clonePayload() Payload { return p }
func (p CodePayload) clonePayload() Payload  { return p }
func (p TaskPayload) clonePayload() Payload  { return p }

func (p ListPayload) clonePayload() Payload {
	return ListPayload{Items: slices.Clone(p.Items)}
}

func (p TablePayload) clonePayload() Payload {
	rows := make([][]string, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = slices.Clone(row)
	}
	return TablePayload{Rows: rows}
}

// DefaultPayload returns the empty payload matching a node type.
func DefaultPayload(t NodeType) Payload {
	switch t {
	case TypeMedia:
		return MediaPayload{}
	case TypeCode:
		return CodePayload{}
	case TypeTable:
		return TablePayload{Rows: [][]string{{"", ""}, {"", ""}}}
	case TypeTask:
		return TaskPayload{}
	default:
		return nil
	}
}

func marshalPayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(p.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

func unmarshalPayload(raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var head struct {
		Kind PayloadKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}

	var err error
	switch head.Kind {
	case KindPlain:
		var p PlainPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case KindMedia:
		var p MediaPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case KindCode:
		var p CodePayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case KindTable:
		var p TablePayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case KindList:
		var p ListPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	case KindTask:
		var p TaskPayload
		err = json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("payload: unknown kind %q", head.Kind)
	}
}
