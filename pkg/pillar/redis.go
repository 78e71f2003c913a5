package pillar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/netgrid-labs/netacl/pkg/netacl"
	"github.com/netgrid-labs/netacl/pkg/util"
)

// Pillar cache layout: one hash per minion, one field per environment,
// holding the rendered pillar document as JSON.
const redisKeyPrefix = "pillar:"

// RedisConfig describes how to reach the pillar cache.
type RedisConfig struct {
	Addr     string // host:port; ignored when SSHHost is set and empty remote is fine
	Password string
	DB       int
	Minion   string

	// When SSHHost is set the connection runs through an SSH tunnel and
	// Addr names the Redis address as seen from the SSH host.
	SSHHost     string
	SSHUser     string
	SSHPassword string
}

// RedisSource serves pillar data from a Redis pillar cache.
type RedisSource struct {
	client *redis.Client
	minion string
	tunnel *SSHTunnel
}

// NewRedisSource connects to the pillar cache and verifies the connection.
func NewRedisSource(cfg RedisConfig) (*RedisSource, error) {
	if cfg.Minion == "" {
		return nil, fmt.Errorf("pillar cache: %w: minion id", util.ErrInvalidConfig)
	}

	addr := cfg.Addr
	var tunnel *SSHTunnel
	if cfg.SSHHost != "" {
		var err error
		tunnel, err = NewSSHTunnel(cfg.SSHHost, cfg.SSHUser, cfg.SSHPassword, cfg.Addr)
		if err != nil {
			return nil, err
		}
		addr = tunnel.LocalAddr()
	} else if addr == "" {
		addr = "127.0.0.1:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if tunnel != nil {
			tunnel.Close()
		}
		return nil, fmt.Errorf("pillar cache ping %s: %w", addr, err)
	}

	util.WithField("minion", cfg.Minion).Debugf("pillar cache connected at %s", addr)
	return &RedisSource{client: client, minion: cfg.Minion, tunnel: tunnel}, nil
}

// Close releases the Redis connection and the SSH tunnel, if any.
func (r *RedisSource) Close() error {
	err := r.client.Close()
	if r.tunnel != nil {
		if terr := r.tunnel.Close(); err == nil {
			err = terr
		}
	}
	return err
}

// Policy returns the filters under the pillar key for the resolved
// environment. A minion or environment absent from the cache yields an
// empty policy.
func (r *RedisSource) Policy(ctx context.Context, opts netacl.PillarOptions) ([]netacl.Filter, error) {
	raw, err := r.client.HGet(ctx, redisKeyPrefix+r.minion, environment(opts)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pillar cache read %s: %w", r.minion, err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("pillar cache decode %s: %w", r.minion, err)
	}
	return filtersFromTree(doc[pillarKey(opts)])
}

// Filter returns the named filter; a zero Filter when the cache does not
// have it.
func (r *RedisSource) Filter(ctx context.Context, name string, opts netacl.PillarOptions) (netacl.Filter, error) {
	return lookupFilter(r.Policy(ctx, opts))(name)
}

// Term returns the fields of one term; nil when the cache does not have it.
func (r *RedisSource) Term(ctx context.Context, filterName, termName string, opts netacl.PillarOptions) (netacl.TermFields, error) {
	return lookupTerm(r.Policy(ctx, opts))(filterName, termName)
}
