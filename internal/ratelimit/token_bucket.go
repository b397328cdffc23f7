package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	ErrNotConfigured = errors.New("rate_limiter_not_configured")
	ErrEmptyKey      = errors.New("rate_limiter_empty_key")
	ErrInvalidPolicy = errors.New("rate_limiter_invalid_policy")
)

// refillScript tops the bucket up by elapsed time and takes one token. The
// balance is returned as a string so fractional tokens survive the reply.
const refillScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now
if now > last then
  tokens = math.min(burst, tokens + (now - last) / 1000 * rate)
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, tostring(tokens)}
`

// Policy is a refill rate in tokens per second and a bucket capacity.
type Policy struct {
	Rate  float64
	Burst int
}

func (p Policy) validate() error {
	if p.Rate <= 0 || p.Burst <= 0 {
		return fmt.Errorf("%w: rate %v burst %d", ErrInvalidPolicy, p.Rate, p.Burst)
	}
	return nil
}

// ttl keeps an idle bucket for twice its full refill time.
func (p Policy) ttl() time.Duration {
	if p.Rate <= 0 || p.Burst <= 0 {
		return time.Second
	}
	return time.Duration(math.Max(1, math.Ceil(float64(p.Burst)/p.Rate*2))) * time.Second
}

// result turns the bucket balance into the headers the tracking page sends.
func (p Policy) result(allowed bool, balance float64) *Result {
	res := &Result{
		Allowed:   allowed,
		Limit:     p.Burst,
		Remaining: int(math.Floor(balance)),
	}
	if !allowed && balance < 1 {
		res.RetryAfter = time.Duration((1 - balance) / p.Rate * float64(time.Second))
	}
	return res
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// TokenBucket is a Redis-backed bucket shared by every API replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(refillScript)}
}

func (t *TokenBucket) Allow(ctx context.Context, key string, policy Policy) (*Result, error) {
	switch {
	case t == nil || t.client == nil:
		return &Result{}, ErrNotConfigured
	case key == "":
		return &Result{}, ErrEmptyKey
	}
	if err := policy.validate(); err != nil {
		return &Result{}, err
	}

	reply, err := t.script.Run(ctx, t.client, []string{key},
		policy.Rate, policy.Burst, policy.ttl().Milliseconds()).Slice()
	if err != nil {
		return &Result{}, err
	}
	if len(reply) != 2 {
		return &Result{}, fmt.Errorf("rate limiter: unexpected reply %v", reply)
	}

	allowed, _ := reply[0].(int64)
	balance, err := parseBalance(reply[1])
	if err != nil {
		return &Result{}, err
	}
	return policy.result(allowed == 1, balance), nil
}

func parseBalance(v any) (float64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseFloat(val, 64)
	case int64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("rate limiter: unexpected balance %T", v)
	}
}
