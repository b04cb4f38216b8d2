package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrNoTextsProvided is returned when EmbedBatch is called with an empty
// input. Callers must not request embeddings for nothing; this fails fast
// and is never retried.
var ErrNoTextsProvided = errors.New("no texts provided for embedding")

// ErrorKind classifies provider failures. The retry policy currently treats
// every kind as retryable, but callers can distinguish them.
type ErrorKind string

const (
	ErrorKindRateLimit      ErrorKind = "rate_limit"
	ErrorKindNetwork        ErrorKind = "network"
	ErrorKindMalformedInput ErrorKind = "malformed_input"
	ErrorKindUnknown        ErrorKind = "unknown"
)

// ProviderError wraps an embedding provider failure with its classification
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider error (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyProviderError wraps err in a ProviderError with a best-effort kind.
// The OpenAI-compatible client surfaces HTTP status text in the error string,
// so classification is heuristic by necessity.
func classifyProviderError(err error) *ProviderError {
	kind := ErrorKindUnknown

	var netErr net.Error
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		kind = ErrorKindRateLimit
	case errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "connection refused"):
		kind = ErrorKindNetwork
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid input"):
		kind = ErrorKindMalformedInput
	}

	return &ProviderError{Kind: kind, Err: err}
}
