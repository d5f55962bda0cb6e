package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/tonynham/collabuu/internal/config"
)

const (
	keyScanBusiness = "scan:business:%s"
	keyScanToken    = "scan:token:%s"
)

// ScanLimiter throttles proof-verification traffic. A burst of scans of
// the same token is the signature of proof fishing, so both the calling
// business and the token itself get a bucket.
type ScanLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewScanLimiter(cfg config.Config) (*ScanLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ScanRate <= 0 || limitCfg.ScanBurst <= 0 {
		return nil, errors.New("scan rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ScanLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.ScanRate,
		burst:   limitCfg.ScanBurst,
	}, nil
}

func (l *ScanLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ScanLimiter) AllowBusiness(ctx context.Context, businessID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyScanBusiness, strings.TrimSpace(businessID)), l.rate, l.burst)
}

func (l *ScanLimiter) AllowToken(ctx context.Context, token string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyScanToken, strings.TrimSpace(token)), l.rate, l.burst)
}
