package graph

import "github.com/insuregraph/insuregraph/internal/types"

// Graph client error codes
const (
	ErrCodeConnectionFailed types.ErrorCode = "GRAPH_CONNECTION_FAILED"
	ErrCodeConnectionClosed types.ErrorCode = "GRAPH_CONNECTION_CLOSED"
	ErrCodeQueryFailed      types.ErrorCode = "GRAPH_QUERY_FAILED"
	ErrCodeInvalidConfig    types.ErrorCode = "GRAPH_INVALID_CONFIG"
	ErrCodeInvalidRequest   types.ErrorCode = "GRAPH_INVALID_REQUEST"
)
