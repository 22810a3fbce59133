package httpcache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Disk stores entries as files in Dir, the temp dir if empty.
type Disk struct {
	Dir string
}

func (s Disk) file(key string) string {
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

func (s Disk) Get(_ context.Context, key string) ([]byte, error) {
	content, err := os.ReadFile(s.file(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	return content, err
}

func (s Disk) Put(_ context.Context, key string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.file(key)), 0o755); err != nil {
		return err
	}
	// write then rename, so that a concurrent Get never reads half a file
	tmp, err := os.CreateTemp(filepath.Dir(s.file(key)), key+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.file(key))
}

// Redis stores entries in a Redis server, they expire after TTL.
type Redis struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// NewRedis connects to addr and checks the server is reachable.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{Client: client, Prefix: "finmon", TTL: ttl}, nil
}

func (s *Redis) wrapKey(key string) string {
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + ":" + key
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	content, err := s.Client.Get(ctx, s.wrapKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return content, err
}

func (s *Redis) Put(ctx context.Context, key string, content []byte) error {
	return s.Client.Set(ctx, s.wrapKey(key), content, s.TTL).Err()
}

// Close closes the connection to the server.
func (s *Redis) Close() error { return s.Client.Close() }
