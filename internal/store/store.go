// Package store persists per-chat conversation histories in a durable
// keyed store: one record per chat holding the serialized history, upserted
// as a whole on every successful exchange.
package store

import (
	"context"

	"github.com/Maksimnp/TelegramBotQwen/internal/history"
)

// Store is the durable chat_id -> history mapping.
//
// Load returns an empty history (nil error) when no record exists. Decode
// and connectivity failures are returned so the caller can apply the
// degrade-to-empty policy visibly at the call site. Save is an idempotent
// upsert with replace-on-conflict, last-writer-wins semantics. Delete of a
// missing record is not an error.
type Store interface {
	Load(ctx context.Context, chatID int64) (history.History, error)
	Save(ctx context.Context, chatID int64, h history.History) error
	Delete(ctx context.Context, chatID int64) error
	Close()
}
