package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"tictacchec/internal/app"
	"tictacchec/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// sessionTokens is set in tests; production builds it from the runtime env.
var sessionTokens *app.SessionTokens

type sessionTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// rpcSessionToken issues a token the standalone websocket server accepts for
// the calling Nakama user.
func rpcSessionToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authenticated user required", 16) // UNAUTHENTICATED
	}

	tokens, ttl := sessionTokensFor(ctx)
	if !tokens.Enabled() {
		logger.Warn("rpcSessionToken: %s not configured.", envSessionSecret)
		return "", runtime.NewError("session tokens are not configured", 9) // FAILED_PRECONDITION
	}

	token, err := tokens.Issue(userID)
	if err != nil {
		logger.Error("rpcSessionToken [User:%s]: Failed to issue token: %v", userID, err)
		return "", runtime.NewError("internal error", 13)
	}

	resBytes, _ := json.Marshal(sessionTokenResponse{Token: token, ExpiresIn: int64(ttl / time.Second)})
	return string(resBytes), nil
}

func sessionTokensFor(ctx context.Context) (*app.SessionTokens, time.Duration) {
	cfg := config.GetGameConfig()
	if sessionTokens != nil {
		return sessionTokens, cfg.SessionTTL()
	}

	secret, issuer := cfg.SessionSecret, cfg.SessionIssuer
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if v := env[envSessionSecret]; v != "" {
			secret = v
		}
		if v := env[envSessionIssuer]; v != "" {
			issuer = v
		}
	}
	return app.NewSessionTokens(secret, issuer, cfg.SessionTTL()), cfg.SessionTTL()
}
