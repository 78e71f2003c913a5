//go:build integration

package pillar

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"

	"github.com/netgrid-labs/netacl/pkg/netacl"
)

// Requires a running Redis; set NETACL_REDIS_ADDR (default 127.0.0.1:6379).
func redisAddr() string {
	if addr := os.Getenv("NETACL_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:6379"
}

func seedPillarCache(t *testing.T, minion, env, doc string) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: redisAddr(), DB: 9})
	defer client.Close()

	ctx := context.Background()
	key := redisKeyPrefix + minion
	if err := client.HSet(ctx, key, env, doc).Err(); err != nil {
		t.Fatalf("seeding %s: %v", key, err)
	}
	t.Cleanup(func() {
		client := redis.NewClient(&redis.Options{Addr: redisAddr(), DB: 9})
		defer client.Close()
		client.Del(context.Background(), key)
	})
}

func TestRedisSourcePolicy(t *testing.T) {
	seedPillarCache(t, "edge01.lab", "base",
		`{"acl": [{"edge-in": {"options": ["inet"], "terms": [{"allow-ssh": {"destination_port": 22, "protocol": "tcp", "action": "accept"}}]}}]}`)

	src, err := NewRedisSource(RedisConfig{Addr: redisAddr(), DB: 9, Minion: "edge01.lab"})
	if err != nil {
		t.Fatalf("NewRedisSource() error: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	filters, err := src.Policy(ctx, netacl.PillarOptions{})
	if err != nil {
		t.Fatalf("Policy() error: %v", err)
	}
	if len(filters) != 1 || filters[0].Name != "edge-in" {
		t.Fatalf("filters = %+v", filters)
	}

	fields, err := src.Term(ctx, "edge-in", "allow-ssh", netacl.PillarOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fields["destination_port"].Strings()[0] != "22" {
		t.Errorf("term fields = %v", fields)
	}

	// Unknown minion environment reads as empty, not as an error.
	missing, err := src.Policy(ctx, netacl.PillarOptions{Pillarenv: "nosuchenv"})
	if err != nil || missing != nil {
		t.Errorf("missing env = %v, %v; want nil, nil", missing, err)
	}
}
