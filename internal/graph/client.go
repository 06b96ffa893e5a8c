package graph

import (
	"context"
	"errors"
	"time"
)

// Client is the narrow contract the profile repository needs from a graph
// database: run one Cypher statement and get its rows back.
type Client interface {
	Write(ctx context.Context, cypher string, params map[string]any) (Result, error)
	Read(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the rows returned by one statement.
type Result struct {
	Records []Record
}

// First returns the first row, if any.
func (r Result) First() (Record, bool) {
	if len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Record maps column names to values.
type Record map[string]any

// String returns the column as a string, or "" when absent or not a string.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Int returns the column as an int64; the driver reports integers as int64.
func (r Record) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Options configures the Neo4j client.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// QueryTimeout bounds each statement; zero leaves it to the caller's context.
	QueryTimeout time.Duration
	UserAgent    string
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
