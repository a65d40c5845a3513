package sheets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// envelope is the documented response schema of the products endpoint.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// jsonRows extracts the product rows from a products response.
//
// The documented shape is {"success": true, "data": [...]}. A strict
// reader accepts nothing else. A lenient reader also accepts, in order,
// {"products": [...]}, a bare array and the first non-empty array
// property of the object. {"success": false} is always an error.
func jsonRows(body []byte, strict bool) ([]map[string]any, error) {
	const op = "jsonRows"
	log := slog.With("op", op)

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrEnvelope)
	}

	if body[0] == '[' {
		if strict {
			return nil, fmt.Errorf("%w: bare array", ErrEnvelope)
		}
		log.Warn("legacy products shape", "shape", "array")
		return decodeRows(body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvelope, err)
	}

	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "Google Sheets returned an error"
		}
		return nil, fmt.Errorf("%w: %s", ErrSource, msg)
	}

	if env.Success != nil && isArray(env.Data) {
		return decodeRows(env.Data)
	}
	if strict {
		return nil, fmt.Errorf("%w: missing success/data", ErrEnvelope)
	}

	props, err := orderedProperties(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvelope, err)
	}
	for _, p := range props {
		if p.name == "products" && isArray(p.value) {
			log.Warn("legacy products shape", "shape", "products")
			return decodeRows(p.value)
		}
	}
	for _, p := range props {
		if isArray(p.value) && !isEmptyArray(p.value) {
			log.Warn("legacy products shape", "shape", "property", "property", p.name)
			return decodeRows(p.value)
		}
	}
	return nil, ErrNoProducts
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isEmptyArray(raw json.RawMessage) bool {
	var vs []json.RawMessage
	return json.Unmarshal(raw, &vs) == nil && len(vs) == 0
}

func decodeRows(raw json.RawMessage) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvelope, err)
	}
	return rows, nil
}

type property struct {
	name  string
	value json.RawMessage
}

// orderedProperties lists the top-level properties of a JSON object in
// document order.
func orderedProperties(body []byte) ([]property, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not an object")
	}

	var props []property
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, errors.New("invalid object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		props = append(props, property{name: name, value: v})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return props, nil
}
