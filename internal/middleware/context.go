package middleware

import (
	"context"

	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

type ctxKey string

const ctxSession ctxKey = "session"

type sessionValue struct {
	id    string
	store *session.MemoryStore
}

func WithSession(ctx context.Context, id string, store *session.MemoryStore) context.Context {
	return context.WithValue(ctx, ctxSession, sessionValue{id: id, store: store})
}

// SessionFrom returns the session attached by Sessions.
func SessionFrom(ctx context.Context) (string, *session.MemoryStore, bool) {
	v, ok := ctx.Value(ctxSession).(sessionValue)
	if !ok || v.store == nil {
		return "", nil, false
	}
	return v.id, v.store, true
}
