// Package ports declares the outbound interfaces the application layer
// depends on. Infrastructure provides the implementations; the editor
// runtime only ever sees these contracts.
package ports

import (
	"context"

	"kgraph/domain/core/valueobjects"
	"kgraph/domain/events"
)

// KeyValueStore is the durable store behind the persistence adapter.
// Values are opaque UTF-8 JSON blobs. Get returns a NOT_FOUND AppError
// for missing keys so callers can distinguish absence from failure.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key with the given prefix
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// ChatModel is the external LLM collaborator. Complete returns the
// assistant's answer for an ordered message history. Implementations own
// their timeout and fallback policy; the machine only ever sees either a
// reply or an error.
type ChatModel interface {
	Complete(ctx context.Context, messages []valueobjects.ChatMessage) (string, error)
}

// StreamingChatModel is implemented by providers that can deliver the
// answer incrementally. Chunks arrive in order; the final concatenation
// equals the returned answer.
type StreamingChatModel interface {
	ChatModel
	StreamComplete(ctx context.Context, messages []valueobjects.ChatMessage, onChunk func(string)) (string, error)
}

// EventSink receives domain events drained from aggregates after a
// successful transition. Delivery is fire-and-forget.
type EventSink interface {
	Publish(ctx context.Context, event events.DomainEvent)
}
