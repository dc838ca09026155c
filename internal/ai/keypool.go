package ai

import (
	"strings"
	"sync/atomic"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
)

// KeyPool rotates API keys round-robin. The cursor advances on every call,
// so consecutive attempts of one review use different keys.
type KeyPool struct {
	keys   []string
	cursor atomic.Uint64
}

func NewKeyPool(keys []string) *KeyPool {
	pool := &KeyPool{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			pool.keys = append(pool.keys, k)
		}
	}
	return pool
}

// Next returns the key under the cursor and advances it.
func (p *KeyPool) Next() (string, error) {
	if p == nil || len(p.keys) == 0 {
		return "", domainErrors.ErrCredentialExhausted
	}
	n := p.cursor.Add(1) - 1
	return p.keys[n%uint64(len(p.keys))], nil
}

func (p *KeyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}
