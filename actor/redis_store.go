package actor

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a Store keeping one Redis hash per actor under
// "{prefix}:{type}:{id}".
func NewRedisStore(client redis.UniversalClient, prefix string) Store {
	if prefix == "" {
		prefix = "reefer"
	}
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) key(ref Ref) string {
	var sb strings.Builder
	sb.WriteString(s.prefix)
	sb.WriteString(":")
	sb.WriteString(ref.Type)
	sb.WriteString(":")
	sb.WriteString(ref.ID)
	return sb.String()
}

func (s *redisStore) Load(ctx context.Context, ref Ref) (map[string][]byte, error) {
	all, err := s.client.HGetAll(ctx, s.key(ref)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(all))
	for k, v := range all {
		out[k] = []byte(v)
	}
	return out, nil
}

func (s *redisStore) Get(ctx context.Context, ref Ref, field string) ([]byte, bool, error) {
	b, err := s.client.HGet(ctx, s.key(ref), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *redisStore) Put(ctx context.Context, ref Ref, fields map[string][]byte) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return s.client.HSet(ctx, s.key(ref), values).Err()
}

func (s *redisStore) Delete(ctx context.Context, ref Ref, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.client.HDel(ctx, s.key(ref), fields...).Err()
}

func (s *redisStore) Purge(ctx context.Context, ref Ref) error {
	return s.client.Del(ctx, s.key(ref)).Err()
}
