package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"taskhub/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Record is the persisted part of a session
type Record struct {
	Token     string     `json:"token" yaml:"token"`
	User      model.User `json:"user" yaml:"user"`
	ExpiresAt time.Time  `json:"expiresAt" yaml:"expires_at"`
}

// Store persists session records by key
type Store interface {
	Load(ctx context.Context, key string) (Record, error)
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "taskhub:session:"

// Key derives the store key for a token; raw tokens are never used as keys
func Key(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// RedisStore keeps records as JSON with a TTL
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, key string) (Record, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// FileStore keeps records in a YAML file, for the CLI
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath is ~/.taskhub/session.yaml
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskhub", "session.yaml"), nil
}

func (s *FileStore) read() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	records := map[string]Record{}
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return records, nil
}

func (s *FileStore) write(records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Load(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return Record{}, err
	}
	rec, ok := records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Save ignores ttl; expiry is checked from ExpiresAt on load
func (s *FileStore) Save(_ context.Context, key string, rec Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return err
	}
	records[key] = rec
	return s.write(records)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	if len(records) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return s.write(records)
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, rec Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
