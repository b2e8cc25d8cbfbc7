package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcSessionToken, rpcSessionToken)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	// Find a match of our game with a seat waiting for an opponent.
	query := fmt.Sprintf("+label.%s:>=1 +label.game:%s", MatchLabelKey_Open, matchLabelGame)

	limit := 1
	authoritative := true

	minSize := 0
	maxSize := 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", runtime.NewError("unable to list matches", 13) // INTERNAL
	}

	if len(matches) > 0 {
		logger.Info("rpcQuickMatch [User:%s]: Found waiting match %s", userID, matches[0].MatchId)
		return quickMatchResponse(matches[0].MatchId, false)
	}

	// Create new match; seat assignment happens in MatchJoin (server-authoritative).
	matchID, err := nk.MatchCreate(ctx, MatchNameTicTacChec, map[string]interface{}{})
	if err != nil {
		logger.Error("rpcQuickMatch [User:%s]: MatchCreate error: %v", userID, err)
		return "", runtime.NewError("unable to create match", 13)
	}

	logger.Info("rpcQuickMatch [User:%s]: Created new match %s", userID, matchID)
	return quickMatchResponse(matchID, true)
}

func quickMatchResponse(matchID string, isNew bool) (string, error) {
	b, err := json.Marshal(QuickMatchResponse{MatchID: matchID, IsNew: isNew})
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
