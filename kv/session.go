package kv

import (
	"context"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

// Session stores values inside the scs session of the current request, which
// scopes every key to the calling browser. The session middleware must have
// loaded the session into the context before Load or Save is called.
type Session struct {
	manager *scs.SessionManager
}

func NewSession(manager *scs.SessionManager) *Session {
	return &Session{manager: manager}
}

func (s *Session) Load(ctx context.Context, key string) ([]byte, error) {
	if !s.manager.Exists(ctx, key) {
		return nil, ErrNotFound
	}

	b := s.manager.GetBytes(ctx, key)
	if b == nil {
		return nil, fmt.Errorf("session value under %q is not a byte slice", key)
	}
	return b, nil
}

func (s *Session) Save(ctx context.Context, key string, value []byte) (err error) {

	// scs panics on a context without a session; a missing session here is
	// a wiring bug that must not take the request down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("saving %q to session: %v", key, r)
		}
	}()

	s.manager.Put(ctx, key, value)
	return nil
}
