package graph

import (
	"context"
	"maps"
	"sync"
)

// MemoryClient is an in-memory Client for repository tests. Responses are
// scripted per statement and every executed statement is recorded.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []ExecutedQuery
	responses    map[string][]Result
	err          error
	connectivity error
}

// ExecutedQuery captures one statement run against the client.
type ExecutedQuery struct {
	Write  bool
	Query  string
	Params map[string]any
}

// NewMemoryClient returns a client with no scripted responses.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{responses: make(map[string][]Result)}
}

// WithError makes every subsequent statement fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// Respond queues res as the answer to the next execution of cypher.
// Statements with nothing queued return an empty Result.
func (m *MemoryClient) Respond(cypher string, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cypher] = append(m.responses[cypher], res)
}

func (m *MemoryClient) Write(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.exec(true, cypher, params)
}

func (m *MemoryClient) Read(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.exec(false, cypher, params)
}

func (m *MemoryClient) exec(write bool, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.calls = append(m.calls, ExecutedQuery{Write: write, Query: cypher, Params: maps.Clone(params)})

	queued := m.responses[cypher]
	if len(queued) == 0 {
		return Result{}, nil
	}
	m.responses[cypher] = queued[1:]
	return queued[0], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// Calls returns a snapshot of executed statements in order.
func (m *MemoryClient) Calls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls...)
}
