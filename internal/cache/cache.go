package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entrySuffix = ".review.json"

// entry is one reviewer answer as written to disk.
type entry struct {
	Answer   string    `json:"answer"`
	StoredAt time.Time `json:"stored_at"`
}

// ReviewCache keeps raw AI reviewer answers on disk so an unchanged prompt
// sent to the same provider and model is not paid for twice. Answers older
// than the TTL are treated as missing.
type ReviewCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// Open prepares the cache directory and drops the answers that already expired.
func Open(dir string, ttl time.Duration) (*ReviewCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating AI review cache directory: %w", err)
	}
	c := &ReviewCache{dir: dir, ttl: ttl, now: time.Now}
	_, _ = c.Prune()
	return c, nil
}

// Key identifies a prompt sent to one provider and model.
func (c *ReviewCache) Key(provider, model, prompt string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// Answer returns the stored answer for key. An expired answer is removed
// and reported as a miss.
func (c *ReviewCache) Answer(key string) (string, bool, error) {
	e, err := c.read(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if c.expired(e) {
		_ = os.Remove(c.path(key))
		return "", false, nil
	}
	return e.Answer, true, nil
}

// Remember stores answer under key, replacing any previous answer.
func (c *ReviewCache) Remember(key, answer string) error {
	data, err := json.Marshal(entry{Answer: answer, StoredAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("error encoding AI review: %w", err)
	}
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing AI review: %w", err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("error writing AI review: %w", err)
	}
	return nil
}

// Prune removes expired and unreadable answers and reports how many went away.
func (c *ReviewCache) Prune() (int, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("error listing AI review cache: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entrySuffix) {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		e, err := c.read(path)
		if err == nil && !c.expired(e) {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

// Purge deletes every stored answer together with the directory.
func (c *ReviewCache) Purge() error {
	return os.RemoveAll(c.dir)
}

func (c *ReviewCache) path(key string) string {
	return filepath.Join(c.dir, key+entrySuffix)
}

func (c *ReviewCache) expired(e entry) bool {
	return c.now().Sub(e.StoredAt) > c.ttl
}

func (c *ReviewCache) read(path string) (entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entry{}, err
		}
		return entry{}, fmt.Errorf("error reading AI review: %w", err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, fmt.Errorf("error decoding AI review %s: %w", filepath.Base(path), err)
	}
	return e, nil
}
