package localstore

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// storage keys
const (
	authTokenKey    = "authToken"
	markedEventsKey = "markedEvents"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is a small file-backed key/value store for client-local state, one
// JSON file per key under the configured state directory. Writes go through
// a temp file + rename so a crash never leaves a torn file.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Get(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key, v)
}

func (s *Store) get(key string, v interface{}) error {
	data, err := ioutil.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return errors.Wrapf(err, "reading %s", key)
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s", key)
}

func (s *Store) Set(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, v)
}

func (s *Store) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return errors.Wrap(err, "creating state dir")
	}

	tmp, err := ioutil.TempFile(s.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", key)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", key)
	}
	if err = os.Chmod(tmp.Name(), 0600); err != nil {
		return errors.Wrapf(err, "chmod %s", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path(key)), "saving %s", key)
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Token & co. implement session.TokenStore.

func (s *Store) Token() (string, error) {
	var token string
	if err := s.Get(authTokenKey, &token); err != nil {
		if err == ErrKeyNotFound {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (s *Store) SetToken(token string) error {
	return s.Set(authTokenKey, token)
}

func (s *Store) ClearToken() error {
	return s.Delete(authTokenKey)
}
