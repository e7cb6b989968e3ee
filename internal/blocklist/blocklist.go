// Package blocklist mirrors block decisions into Redis so edge proxies can
// look up blocked IPs without querying the relational store.
package blocklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/telhawk-systems/logblock/internal/models"
)

// DefaultKey is the sorted set holding every blocked IP.
const DefaultKey = "logblock:blocked"

// Entry is the per-IP hash stored next to the set.
type Entry struct {
	IP           string
	Threshold    int
	RequestCount int
	WindowStart  string
	Duration     string
	Message      string
}

// Blocklist writes decisions to a Redis sorted set plus one expiring hash
// per IP. Set members are scored with the Unix time their block lapses, the
// same instant the hash expires.
type Blocklist struct {
	redis *redis.Client
	key   string
	now   func() time.Time
}

// New creates a Blocklist rooted at key.
func New(client *redis.Client, key string) *Blocklist {
	if key == "" {
		key = DefaultKey
	}
	return &Blocklist{redis: client, key: key, now: time.Now}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url, key string) (*Blocklist, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return New(client, key), nil
}

func (b *Blocklist) Name() string {
	return "redis"
}

func (b *Blocklist) entryKey(ip string) string {
	return fmt.Sprintf("%s:%s", b.key, ip)
}

// Publish adds every decision IP to the set and refreshes its hash. Both
// lapse one window length after the latest publish. Lapsed members are
// trimmed on every publish.
func (b *Blocklist) Publish(ctx context.Context, w models.Window, decisions []models.BlockDecision) error {
	if len(decisions) == 0 {
		return nil
	}

	now := b.now()
	ttl := w.Duration.Length()
	expiresAt := float64(now.Add(ttl).Unix())
	pipe := b.redis.TxPipeline()

	members := make([]redis.Z, 0, len(decisions))
	for _, d := range decisions {
		members = append(members, redis.Z{Score: expiresAt, Member: d.IP})

		entryKey := b.entryKey(d.IP)
		pipe.HSet(ctx, entryKey, map[string]interface{}{
			"threshold":     d.Threshold,
			"request_count": d.RequestCount,
			"window_start":  d.WindowStart.UTC().Format(models.WindowLayout),
			"duration":      d.Duration.String(),
			"message":       d.Message,
		})
		pipe.Expire(ctx, entryKey, ttl)
	}
	pipe.ZRemRangeByScore(ctx, b.key, "-inf", strconv.FormatInt(now.Unix(), 10))
	pipe.ZAdd(ctx, b.key, members...)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update blocklist: %w", err)
	}
	return nil
}

// Members returns the IPs whose block has not lapsed, in lexical order.
func (b *Blocklist) Members(ctx context.Context) ([]string, error) {
	ips, err := b.redis.ZRangeByScore(ctx, b.key, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(b.now().Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list blocklist: %w", err)
	}
	sort.Strings(ips)
	return ips, nil
}

// Get returns the hash of ip, or ok=false when it has expired or was never set.
func (b *Blocklist) Get(ctx context.Context, ip string) (*Entry, bool, error) {
	fields, err := b.redis.HGetAll(ctx, b.entryKey(ip)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(fields) == 0) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get blocklist entry: %w", err)
	}

	threshold, _ := strconv.Atoi(fields["threshold"])
	count, _ := strconv.Atoi(fields["request_count"])

	return &Entry{
		IP:           ip,
		Threshold:    threshold,
		RequestCount: count,
		WindowStart:  fields["window_start"],
		Duration:     fields["duration"],
		Message:      fields["message"],
	}, true, nil
}

// TTL returns the remaining lifetime of the hash for ip.
func (b *Blocklist) TTL(ctx context.Context, ip string) (time.Duration, error) {
	return b.redis.TTL(ctx, b.entryKey(ip)).Result()
}

func (b *Blocklist) Close() error {
	return b.redis.Close()
}
