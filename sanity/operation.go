package sanity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sanity-io/demo-graphql-presentation-nextjs/sanity/stega"
)

// OperationKind distinguishes queries from mutations.
type OperationKind string

const (
	KindQuery    OperationKind = "query"
	KindMutation OperationKind = "mutation"
)

// RequestPolicy controls whether the result cache may answer an operation.
type RequestPolicy string

const (
	CacheFirst  RequestPolicy = "cache-first"
	NetworkOnly RequestPolicy = "network-only"
)

// OperationContext carries per-operation settings. Zero values fall back to
// the exchange configuration.
type OperationContext struct {
	URL           string
	Perspective   Perspective
	Stega         *bool
	RequestPolicy RequestPolicy
	Headers       http.Header
}

// Operation is a single GraphQL request flowing through the exchanges.
type Operation struct {
	Kind      OperationKind
	Query     string
	Variables map[string]any
	Context   OperationContext
}

// WithContext returns a copy of op using ctx.
func (op *Operation) WithContext(ctx OperationContext) *Operation {
	next := *op
	next.Context = ctx
	return &next
}

// stega reports the resolved stega flag of op.
func (op *Operation) stega(fallback bool) bool {
	if op.Context.Stega != nil {
		return *op.Context.Stega
	}
	return fallback
}

// Result is the outcome of an operation.
type Result struct {
	Operation  *Operation
	Data       any
	Errors     []GraphQLError
	Extensions map[string]json.RawMessage
	// Cached is set when the result cache answered the operation.
	Cached bool
}

// wireResult is the JSON shape of a GraphQL response.
type wireResult struct {
	Data       json.RawMessage            `json:"data,omitempty"`
	Errors     []GraphQLError             `json:"errors,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

func decodeResult(op *Operation, body []byte) (*Result, error) {
	var wire wireResult
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("sanity: decode response: %w", err)
	}
	res := &Result{Operation: op, Errors: wire.Errors, Extensions: wire.Extensions}
	if len(wire.Data) > 0 && !bytes.Equal(wire.Data, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(wire.Data))
		dec.UseNumber()
		if err := dec.Decode(&res.Data); err != nil {
			return nil, fmt.Errorf("sanity: decode data: %w", err)
		}
	}
	return res, nil
}

func encodeResult(res *Result) ([]byte, error) {
	data, err := json.Marshal(res.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireResult{Data: data, Errors: res.Errors, Extensions: res.Extensions})
}

// Err returns the GraphQL errors of the result, if any.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return GraphQLErrors(r.Errors)
}

// Decode unmarshals the result data into v.
func (r *Result) Decode(v any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("sanity: encode data: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("sanity: decode data: %w", err)
	}
	return nil
}

// SourceMap returns the content source map attached to the result.
func (r *Result) SourceMap() (*stega.ContentSourceMap, bool, error) {
	raw, ok := r.Extensions["sanitySourceMap"]
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}
	csm, err := stega.ParseSourceMap(raw)
	if err != nil {
		return nil, true, err
	}
	return csm, true, nil
}
