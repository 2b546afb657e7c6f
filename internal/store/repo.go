package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // id > After
	Before  int64     // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match
}

// KVEntry is one stored blob.
type KVEntry struct {
	Namespace string
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// KVRepo stores JSON blobs under (namespace, key). The namespace is the
// user id; keys are fixed names such as "userActivities".
type KVRepo interface {
	// Get returns the value and whether it exists.
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)

	// Put inserts or replaces a value.
	Put(ctx context.Context, namespace, key string, value []byte) error

	// PutAll writes several keys of one namespace in a single transaction.
	PutAll(ctx context.Context, namespace string, values map[string][]byte) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, namespace string, keys ...string) error

	// Entries returns every entry stored under key, across namespaces.
	Entries(ctx context.Context, key string) ([]KVEntry, error)

	// Namespaces lists the distinct namespaces holding any key.
	Namespaces(ctx context.Context) ([]string, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID           int
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)

	// PruneLLMEvents deletes events older than before and returns how many.
	PruneLLMEvents(ctx context.Context, before time.Time) (int64, error)
}
