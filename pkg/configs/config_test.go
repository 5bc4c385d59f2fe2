package configs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/avatarhub/pkg/configs"
)

func TestDefaultWriteRateLimits(t *testing.T) {
	cfg := configs.Default()

	rl := cfg.RateLimit
	require.True(t, rl.Enabled)
	require.Equal(t, "user", rl.Key)
	require.InDelta(t, configs.DefaultRateLimitRPS, rl.RPS, 1e-9)
	require.Equal(t, configs.DefaultRateLimitBurst, rl.Burst)

	votes := rl.ForVotes()
	require.True(t, votes.Enabled)
	require.Equal(t, "user", votes.Key)
	require.InDelta(t, configs.DefaultRateLimitVoteRPS, votes.RPS, 1e-9)
	require.Equal(t, configs.DefaultRateLimitVoteBurst, votes.Burst)
	require.Less(t, votes.Burst, rl.Burst)
}

func TestForVotesFallsBackToWriteBucket(t *testing.T) {
	rl := configs.RateLimitConfig{Enabled: true, Key: "ip", RPS: 3, Burst: 7}

	votes := rl.ForVotes()
	require.Equal(t, "ip", votes.Key)
	require.InDelta(t, 3.0, votes.RPS, 1e-9)
	require.Equal(t, 7, votes.Burst)

	rl.Vote = configs.RateLimitBucket{RPS: 0.5}
	votes = rl.ForVotes()
	require.InDelta(t, 0.5, votes.RPS, 1e-9)
	require.Equal(t, 1, votes.Burst)
}

func TestEnvOverridesBreakerAndVoteLimit(t *testing.T) {
	t.Setenv("AVATARHUB_CIRCUIT_BREAKER_OPEN_TIMEOUT", "5s")
	t.Setenv("AVATARHUB_RATE_LIMIT_VOTE_BURST", "2")
	t.Setenv("AVATARHUB_KV_NATS_MAX_AGE", "1h")

	cfg, err := configs.Load(configs.New())
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.CircuitBreaker.OpenTimeout)
	require.Equal(t, configs.DefaultCBInterval, cfg.CircuitBreaker.Interval)
	require.EqualValues(t, configs.DefaultCBHalfOpenReqs, cfg.CircuitBreaker.HalfOpenRequests)
	require.Equal(t, 2, cfg.RateLimit.ForVotes().Burst)
	require.Equal(t, time.Hour, cfg.KV.NATS.MaxAge)
	require.Equal(t, configs.NATSKVStorageFile, cfg.KV.NATS.Storage)
}
