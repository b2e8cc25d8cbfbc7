package bot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// BotIDPrefix marks user ids that belong to bots.
const BotIDPrefix = "bot-"

type BotIdentity struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Level       BotLevel `json:"level"`
}

var defaultIdentities = []BotIdentity{
	{UserID: BotIDPrefix + "rook", Username: "rook", DisplayName: "Rook Bot", Level: BotLevelMedium},
	{UserID: BotIDPrefix + "knight", Username: "knight", DisplayName: "Knight Bot", Level: BotLevelHard},
	{UserID: BotIDPrefix + "pawn", Username: "pawn", DisplayName: "Pawn Bot", Level: BotLevelEasy},
}

var (
	identityMu    sync.RWMutex
	botIdentities = defaultIdentities
	botConfigMap  = indexIdentities(defaultIdentities)
	loadOnce      sync.Once
	loadErr       error
)

func indexIdentities(ids []BotIdentity) map[string]BotIdentity {
	m := make(map[string]BotIdentity, len(ids))
	for _, identity := range ids {
		m[identity.UserID] = identity
	}
	return m
}

// LoadIdentities replaces the built-in bot profiles with the ones in path.
// Every user id must carry BotIDPrefix.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		var ids []BotIdentity
		if err := json.Unmarshal(data, &ids); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		if len(ids) == 0 {
			loadErr = fmt.Errorf("bot identities file %s is empty", path)
			return
		}
		for _, identity := range ids {
			if !strings.HasPrefix(identity.UserID, BotIDPrefix) {
				loadErr = fmt.Errorf("bot user id %q lacks prefix %q", identity.UserID, BotIDPrefix)
				return
			}
		}

		identityMu.Lock()
		botIdentities = ids
		botConfigMap = indexIdentities(ids)
		identityMu.Unlock()
	})
	return loadErr
}

// GetBotConfig returns the full identity configuration for a given bot ID.
func GetBotConfig(userID string) (BotIdentity, bool) {
	identityMu.RLock()
	defer identityMu.RUnlock()
	config, ok := botConfigMap[userID]
	return config, ok
}

// GetBotDisplayName returns the display name for a bot ID, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	config, ok := GetBotConfig(userID)
	if !ok {
		return ""
	}
	if config.DisplayName == "" {
		return config.Username
	}
	return config.DisplayName
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
func GetBotIdentity(index int) BotIdentity {
	identityMu.RLock()
	defer identityMu.RUnlock()
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("%s%d", BotIDPrefix, index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
			Level:       BotLevelMedium,
		}
	}
	return botIdentities[index%len(botIdentities)]
}

// IsBot reports whether the given user ID belongs to a bot.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, BotIDPrefix)
}
