package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_FillsDefaults(t *testing.T) {
	cfg := &Config{Bots: []BotConfig{{}}}
	cfg.sanitize()

	assert.Equal(t, 50*time.Millisecond, cfg.RPC.MinInterval)
	assert.Equal(t, 10, cfg.RPC.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RPC.RetryDelay)
	assert.Equal(t, 5*time.Second, cfg.Crank.ScanInterval)
	assert.Equal(t, uint32(1_400_000), cfg.Crank.CUBudget)
	assert.Equal(t, 24*time.Hour, cfg.Crank.RedisAuditListTTL)
	assert.Equal(t, 200*time.Millisecond, cfg.Bots[0].TickInterval)
}

func TestSanitize_LeavesExplicitValuesAlone(t *testing.T) {
	cfg := &Config{}
	cfg.RPC.MinInterval = 9 * time.Millisecond
	cfg.sanitize()
	assert.Equal(t, 9*time.Millisecond, cfg.RPC.MinInterval)
}
