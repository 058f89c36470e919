package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseBytes bounds a single GraphQL response body.
const maxResponseBytes = 16 << 20

// FetchExchange is the terminal stage: it POSTs the operation to its URL.
func FetchExchange(client *http.Client, logger *zap.Logger) Forward {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, op *Operation) (*Result, error) {
		payload, err := json.Marshal(struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables,omitempty"`
		}{op.Query, op.Variables})
		if err != nil {
			return nil, fmt.Errorf("sanity: encode request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, op.Context.URL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("sanity: build request: %w", err)
		}
		for k, vs := range op.Context.Headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/graphql-response+json, application/json")
		requestID := uuid.NewString()
		req.Header.Set("X-Request-Id", requestID)

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("sanity: read response: %w", err)
		}
		logger.Debug("sanity: fetch",
			zap.String("request_id", requestID),
			zap.String("host", req.URL.Host),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(body)),
		)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			if res, err := decodeResult(op, body); err == nil && len(res.Errors) > 0 {
				return res, nil
			}
			return nil, &HTTPError{
				StatusCode: resp.StatusCode,
				URL:        req.URL.Redacted(),
				Body:       strings.TrimSpace(string(truncate(body, 512))),
			}
		}
		return decodeResult(op, body)
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
