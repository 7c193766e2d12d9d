package usecase

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ferdian3456/tiergate/internal/model"

	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const defaultTierTable = "49:standard,299:standard,79:premium,399:premium"

// TierResolver is the single source of truth for which paid amounts belong to
// which channel. The table is built once at startup and never mutated.
type TierResolver struct {
	amounts  map[int64]model.Tier
	channels map[string]model.Tier
}

func NewTierResolver(table map[int64]model.Tier) *TierResolver {
	channels := map[string]model.Tier{}
	for _, tier := range table {
		channels[tier.Channel] = tier
	}

	return &TierResolver{
		amounts:  table,
		channels: channels,
	}
}

// LoadTierTable parses TIER_TABLE ("amount:tier,...") and resolves each tier
// name to its CHANNEL_<TIER>_ID. Malformed entries and missing channel ids are
// startup configuration errors: the process refuses to start.
func LoadTierTable(config *koanf.Koanf, log *zap.Logger) map[int64]model.Tier {
	raw := config.String("TIER_TABLE")
	if raw == "" {
		raw = defaultTierTable
	}

	table := map[int64]model.Tier{}
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Fatal("malformed TIER_TABLE entry", zap.String("entry", entry))
		}

		amount, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			log.Fatal("malformed TIER_TABLE amount", zap.String("entry", entry), zap.Error(err))
		}

		tierName := strings.ToLower(parts[1])
		channelKey := "CHANNEL_" + strings.ToUpper(tierName) + "_ID"
		channelID := config.String(channelKey)
		if channelID == "" {
			log.Fatal("missing channel id for tier", zap.String("tier", tierName), zap.String("key", channelKey))
		}

		table[amount] = model.Tier{Name: tierName, Channel: channelID}
	}

	if len(table) == 0 {
		log.Fatal("TIER_TABLE resolved to an empty amount table")
	}

	return table
}

// Resolve maps a raw paid amount to its tier. Unknown amounts are not errors:
// they mean no valid subscription.
func (resolver *TierResolver) Resolve(amount int64) (model.Tier, bool) {
	tier, ok := resolver.amounts[amount]
	return tier, ok
}

// Managed reports whether the channel is one the engine is authorized to
// admit and evict members from.
func (resolver *TierResolver) Managed(channel string) bool {
	_, ok := resolver.channels[channel]
	return ok
}

// TierFor returns the tier whose designated channel is the given one.
func (resolver *TierResolver) TierFor(channel string) (model.Tier, bool) {
	tier, ok := resolver.channels[channel]
	return tier, ok
}

// Channels lists the managed channels in a stable order.
func (resolver *TierResolver) Channels() []string {
	channels := make([]string, 0, len(resolver.channels))
	for channel := range resolver.channels {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	return channels
}
