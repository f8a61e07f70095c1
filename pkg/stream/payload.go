package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	discriminatorKey = "type"
	nestedObjectKey  = "object"

	kindObject = "object"
	kindFinish = "finish"
)

var errNotObject = errors.New("payload is not a JSON object")

type payloadKind int

const (
	payloadMerge payloadKind = iota
	payloadFinish
)

type payload struct {
	kind   payloadKind
	fields map[string]any
}

// classify decodes one record payload. Three conventions are recognized and
// are mutually exclusive:
//
//	{"type":"finish"}                  ends the session, nothing merged
//	{"type":"object","object":{...}}   the nested object is merged
//	{...}                              the object itself is merged
//
// A "type":"object" record without a nested object falls back to the bare
// object convention.
func classify(raw string) (payload, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return payload{}, fmt.Errorf("decoding record: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return payload{}, errNotObject
	}

	switch obj[discriminatorKey] {
	case kindFinish:
		return payload{kind: payloadFinish}, nil
	case kindObject:
		if nested, ok := obj[nestedObjectKey].(map[string]any); ok {
			return payload{kind: payloadMerge, fields: nested}, nil
		}
	}

	return payload{kind: payloadMerge, fields: obj}, nil
}
