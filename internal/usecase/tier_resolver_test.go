package usecase

import (
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadTierTableDefault(t *testing.T) {
	config := koanf.New(".")
	_ = config.Set("CHANNEL_STANDARD_ID", "-100111")
	_ = config.Set("CHANNEL_PREMIUM_ID", "-100222")

	table := LoadTierTable(config, zap.NewNop())
	require.Len(t, table, 4)

	assert.Equal(t, "standard", table[49].Name)
	assert.Equal(t, "standard", table[299].Name)
	assert.Equal(t, "premium", table[79].Name)
	assert.Equal(t, "premium", table[399].Name)
	assert.Equal(t, "-100111", table[49].Channel)
	assert.Equal(t, "-100222", table[399].Channel)
}

func TestLoadTierTableCustom(t *testing.T) {
	config := koanf.New(".")
	_ = config.Set("TIER_TABLE", "10:basic, 20:basic ,500:gold")
	_ = config.Set("CHANNEL_BASIC_ID", "-1001")
	_ = config.Set("CHANNEL_GOLD_ID", "-1002")

	table := LoadTierTable(config, zap.NewNop())
	require.Len(t, table, 3)
	assert.Equal(t, "-1001", table[20].Channel)
	assert.Equal(t, "gold", table[500].Name)
}

func TestResolverEveryConfiguredAmount(t *testing.T) {
	resolver := testResolver()

	for _, amount := range []int64{49, 299} {
		tier, ok := resolver.Resolve(amount)
		require.True(t, ok, "amount %d", amount)
		assert.Equal(t, "standard", tier.Name)
	}
	for _, amount := range []int64{79, 399} {
		tier, ok := resolver.Resolve(amount)
		require.True(t, ok, "amount %d", amount)
		assert.Equal(t, "premium", tier.Name)
	}
}

func TestResolverUnknownAmount(t *testing.T) {
	resolver := testResolver()

	_, ok := resolver.Resolve(999)
	assert.False(t, ok)
	_, ok = resolver.Resolve(0)
	assert.False(t, ok)
}

func TestResolverChannels(t *testing.T) {
	resolver := testResolver()

	assert.True(t, resolver.Managed("-100111"))
	assert.True(t, resolver.Managed("-100222"))
	assert.False(t, resolver.Managed("-100333"))

	assert.Equal(t, []string{"-100111", "-100222"}, resolver.Channels())

	tier, ok := resolver.TierFor("-100222")
	require.True(t, ok)
	assert.Equal(t, "premium", tier.Name)
}
