package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/shoecare/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPublicTrack = "track:client:%s"

// TrackLimiter throttles the public order tracking page per client. A nil
// or disabled limiter allows everything.
type TrackLimiter struct {
	enabled bool
	bucket  *TokenBucket
	policy  Policy
	log     *zap.Logger
}

func NewTrackLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*TrackLimiter, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		log.Info("public tracking rate limit disabled, redis not configured")
		return &TrackLimiter{}, nil
	}
	policy := Policy{Rate: cfg.TrackRatePerSecond, Burst: cfg.TrackBurst}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &TrackLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		policy:  policy,
		log:     log.Named("ratelimit.track"),
	}, nil
}

func (l *TrackLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *TrackLimiter) Allow(ctx context.Context, client string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, trackKey(client), l.policy)
}

func trackKey(client string) string {
	client = strings.TrimSpace(client)
	if client == "" {
		client = "unknown"
	}
	return fmt.Sprintf(keyPublicTrack, client)
}
