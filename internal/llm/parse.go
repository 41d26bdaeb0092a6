package llm

import (
	"encoding/json"
	"fmt"
)

// ParseResult is the outcome of decoding a model response into T. Exactly
// one of Value or Err is meaningful; Raw keeps the content for logs.
type ParseResult[T any] struct {
	Value T
	Err   error
	Raw   json.RawMessage
}

// Ok reports whether decoding succeeded.
func (r ParseResult[T]) Ok() bool { return r.Err == nil }

// Parse checks raw against schema, when given, and decodes it into T.
// Failures are reported as *ErrInvalidResponse.
func Parse[T any](schema *Schema, raw json.RawMessage) ParseResult[T] {
	raw = normalizeJSON(raw)
	res := ParseResult[T]{Raw: raw}
	if err := validateResponse(schema, raw); err != nil {
		res.Err = err
		return res
	}
	if err := json.Unmarshal(raw, &res.Value); err != nil {
		res.Err = &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("decode: %w", err)}
	}
	return res
}
