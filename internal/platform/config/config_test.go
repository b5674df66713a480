package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LEDGER_OWNER", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "direct", cfg.Token.Logic)
	assert.True(t, cfg.Token.AllowOwnerSelfRemoval)
	assert.False(t, cfg.Token.ExemptOwners)
	assert.Equal(t, "1000000", cfg.Token.InitialSupply.String())
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_OWNER", "0x00000000000000000000000000000000000000b1")
	t.Setenv("LEDGER_INITIAL_SUPPLY", "42")
	t.Setenv("LEDGER_WHITELIST_ENABLED", "false")
	t.Setenv("LEDGER_LOGIC", "escrow")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("REDIS_DIAL_TIMEOUT", "250ms")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000b1"), cfg.Token.Owner)
	assert.Equal(t, "42", cfg.Token.InitialSupply.String())
	assert.False(t, cfg.Token.WhitelistEnabled)
	assert.Equal(t, "escrow", cfg.Token.Logic)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.DialTimeout)
}

func TestFromEnvRejectsBadOwner(t *testing.T) {
	t.Setenv("LEDGER_OWNER", "0x0000000000000000000000000000000000000000")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("LEDGER_OWNER", "nope")
	_, err = FromEnv()
	assert.Error(t, err)
}
