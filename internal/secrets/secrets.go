// Package secrets supplies the signing key at process startup. The key
// is fetched once and treated as immutable afterwards; rotating it
// requires a restart.
package secrets

import (
	"context"
	"errors"
)

// Provider yields opaque secret material for the process.
type Provider interface {
	SigningKey(ctx context.Context) ([]byte, error)
}

type staticProvider struct {
	key []byte
}

// NewStaticProvider serves a key supplied through configuration,
// bypassing any remote vault. Intended for local development.
func NewStaticProvider(key string) (Provider, error) {
	if key == "" {
		return nil, errors.New("signing key is empty")
	}
	return &staticProvider{key: []byte(key)}, nil
}

func (p *staticProvider) SigningKey(ctx context.Context) ([]byte, error) {
	return p.key, nil
}
