package sanity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingConfig is wrapped with the name of the missing setting.
	ErrMissingConfig = errors.New("sanity: missing configuration")
	// ErrTokenRequired is returned when previewDrafts is requested without a read token.
	ErrTokenRequired = errors.New("sanity: read token required for the previewDrafts perspective")
	// ErrUnknownPerspective is returned for perspectives other than published and previewDrafts.
	ErrUnknownPerspective = errors.New("sanity: unknown perspective")
)

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingConfig, key)
}

// HTTPError is returned when the API answers with a non-2xx status and no
// GraphQL payload.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sanity: %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// GraphQLError is a single entry of a GraphQL errors array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLErrors is the error form of a result's errors array.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "sanity: graphql: " + strings.Join(msgs, "; ")
}
