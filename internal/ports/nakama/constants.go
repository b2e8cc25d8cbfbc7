package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find a waiting match or create one.
	RpcQuickMatch = "quick_match"

	// RpcSessionToken issues a session token for the standalone websocket server.
	RpcSessionToken = "session_token"

	// MatchNameTicTacChec is the authoritative match handler name registered with Nakama.
	MatchNameTicTacChec = "tictacchec_match"

	// MatchLabelKey_Open is the label key holding the number of seats a newcomer may take.
	MatchLabelKey_Open = "open"

	matchLabelGame = "tictacchec"
)

// Op codes for client messages and server events. Payloads are JSON frames
// in the shared wire format.
const (
	// Client -> Server
	OpSubmitAction   int64 = 1
	OpRequestRematch int64 = 2

	// Server -> Client events
	OpRoomCreated      int64 = 101
	OpRoomJoined       int64 = 102
	OpStateUpdate      int64 = 103
	OpDisconnectNotice int64 = 104
	OpRematchRequested int64 = 105
	OpError            int64 = 106 // sent privately
)

// Runtime environment keys read in MatchInit.
const (
	envBotsEnabled      = "tictacchec_bots_enabled"
	envBotAutoFillDelay = "tictacchec_bot_auto_fill_delay_sec"
	envBotPlies         = "tictacchec_bot_plies"
	envBotDeepening     = "tictacchec_bot_deepening"
	envSessionSecret    = "tictacchec_session_secret"
	envSessionIssuer    = "tictacchec_session_issuer"
)

const (
	tickRate = 2
	// botMoveBudgetMs bounds one bot search inside MatchLoop.
	botMoveBudgetMs = 300
)
