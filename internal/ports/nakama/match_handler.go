package nakama

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"tictacchec/internal/app"
	"tictacchec/internal/bot"
	"tictacchec/internal/config"
	"tictacchec/internal/domain"
	"tictacchec/internal/protocol"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
// Room seats hold Nakama user IDs; bot seats hold bot user IDs.
type MatchState struct {
	Room                 *app.Room                   `json:"-"`
	Tick                 int64                       `json:"tick"`                    // Current tick of the match
	Presences            map[string]runtime.Presence `json:"-"`                       // Map UserId -> Presence for targeted messaging
	BotsEnabled          bool                        `json:"bots_enabled"`            // Whether a bot may fill the second seat
	BotAutoFillDelay     int                         `json:"bot_auto_fill_delay"`     // Seconds to wait before auto-filling with a bot
	BotPlies             int                         `json:"bot_plies"`               // Search depth of a medium bot
	BotDeepening         bool                        `json:"bot_deepening"`           // Whether bots search with iterative deepening
	BotCacheSize         int                         `json:"bot_cache_size"`          // Transposition cache entries per bot
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"` // Tick when a single player started waiting
	Bots                 map[string]*bot.Agent       `json:"-"`                       // Active bot agents
}

// GetHumanPlayerCount returns the number of seated humans.
func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Room.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// opponentName returns the display name of the player facing side: a bot's
// configured name or a human's username.
func (ms *MatchState) opponentName(side domain.Side) string {
	userID := ms.Room.Seats[side.Opponent()]
	if isBotUserId(userID) {
		return bot.GetBotDisplayName(userID)
	}
	if p, ok := ms.Presences[userID]; ok {
		return p.GetUsername()
	}
	return ""
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// newMatchState builds the state of a fresh match from the game config and
// the runtime environment.
func newMatchState(matchID string, env map[string]string) *MatchState {
	cfg := config.GetGameConfig()
	state := &MatchState{
		Room:             app.NewRoom(matchID, nil),
		Presences:        make(map[string]runtime.Presence),
		Bots:             make(map[string]*bot.Agent),
		BotsEnabled:      cfg.BotsEnabled,
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
		BotPlies:         cfg.SearchPlies,
		BotDeepening:     cfg.SearchDeepening,
		BotCacheSize:     cfg.SearchCacheSize,
	}

	if val, ok := env[envBotsEnabled]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env[envBotAutoFillDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.BotAutoFillDelay = i
		}
	}
	if val, ok := env[envBotPlies]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 1 && i <= bot.MaxPlies {
			state.BotPlies = i
		}
	}
	if val, ok := env[envBotDeepening]; ok {
		if b, err := strconv.ParseBool(val); err == nil {
			state.BotDeepening = b
		}
	}
	return state
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}
	if err := bot.LoadIdentities(config.GetGameConfig().BotIdentitiesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	state := newMatchState(matchID, env)

	label, err := matchLabel(state.Room)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if _, seated := matchState.Room.SideOf(presence.GetUserId()); seated {
		return state, false, "Already seated"
	}
	if !matchState.Room.Open() {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		events, err := matchState.Room.Join(p.GetUserId())
		if err != nil {
			logger.Warn("MatchJoin: User %s joined but could not be seated: %v", p.GetUserId(), err)
			mh.sendError(matchState, dispatcher, logger, p.GetUserId(), err)
			delete(matchState.Presences, p.GetUserId())
			continue
		}
		logger.Info("MatchJoin: User %s seated (%s).", p.GetUserId(), matchState.Room)
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		events, _ := matchState.Room.Leave(p.GetUserId())
		logger.Debug("MatchLeave: User %s left (%s).", p.GetUserId(), matchState.Room)
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if shouldTerminateNoHumans(matchState.Room.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg)
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	decoded, err := decodeClientFrame(msg.GetOpCode(), msg.GetData())
	if err != nil {
		logger.Warn("MatchLoop: Rejected message from %s (op %d): %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	status := state.Room.Status
	var events []app.Event
	switch m := decoded.(type) {
	case protocol.SubmitAction:
		action, _ := m.Action()
		events, err = state.Room.Submit(senderID, action)
	case protocol.RequestRematch:
		events, err = state.Room.RequestRematch(senderID)
		if err == nil {
			events = append(events, mh.botRematch(state, logger)...)
		}
	}
	if err != nil {
		logger.Warn("MatchLoop: User %s failed: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}
	mh.broadcastEvents(state, dispatcher, logger, events)

	if state.Room.Status != status {
		if state.Room.Status == app.StatusFinished {
			logger.Info("MatchLoop: Game finished in %s: %+v", state.Room.ID, state.Room.Game.Result)
		}
		mh.updateLabel(state, dispatcher, logger)
	}
}

// botRematch lets a seated bot accept a pending rematch.
func (mh *matchHandler) botRematch(state *MatchState, logger runtime.Logger) []app.Event {
	if state.Room.Status != app.StatusFinished {
		return nil
	}
	for _, seat := range state.Room.Seats {
		if !isBotUserId(seat) {
			continue
		}
		events, err := state.Room.RequestRematch(seat)
		if err != nil {
			logger.Warn("botRematch: Bot %s could not accept: %v", seat, err)
			return nil
		}
		return events
	}
	return nil
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	room := state.Room

	// 1. Auto-fill the empty seat with a bot once a lone human has waited long enough.
	if room.Open() && state.GetHumanPlayerCount() == 1 {
		if state.LastSinglePlayerTick == 0 {
			state.LastSinglePlayerTick = state.Tick
			logger.Debug("processBots: Single player detected, starting auto-fill timer.")
		}

		if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay*tickRate) {
			state.LastSinglePlayerTick = 0
			mh.addBot(state, dispatcher, logger)
		}
	} else {
		state.LastSinglePlayerTick = 0
	}

	// 2. Play the bot's turn.
	if room.Status != app.StatusActive || room.Game.Terminal() {
		return
	}
	currentUserID := room.Seats[room.Game.Turn]
	if !isBotUserId(currentUserID) {
		return
	}

	agent, exists := state.Bots[currentUserID]
	if !exists {
		logger.Error("processBots: No agent for bot %s", currentUserID)
		return
	}

	action, err := mh.botAction(ctx, agent, room.Game, logger)
	if err != nil {
		logger.Error("processBots: Bot %s (%s) failed to calculate action: %v", agent.Name, currentUserID, err)
		return
	}

	events, err := room.Submit(currentUserID, action)
	if err != nil {
		logger.Error("processBots: Bot %s (%s) action %s rejected: %v", agent.Name, currentUserID, action, err)
		return
	}
	mh.broadcastEvents(state, dispatcher, logger, events)
	if room.Status == app.StatusFinished {
		mh.updateLabel(state, dispatcher, logger)
	}
}

// botAction asks agent for its action within the move budget. A search that
// runs out of time without a completed horizon falls back to one ply so the
// bot always moves.
func (mh *matchHandler) botAction(ctx context.Context, agent *bot.Agent, game *domain.Game, logger runtime.Logger) (domain.Action, error) {
	searchCtx, cancel := context.WithTimeout(ctx, botMoveBudgetMs*time.Millisecond)
	defer cancel()
	action, err := agent.Play(searchCtx, game)
	if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return action, err
	}
	logger.Warn("processBots: Bot %s out of time, falling back to one ply", agent.Name)
	return bot.SelectAction(ctx, game, agent.Side, 1)
}

func (mh *matchHandler) addBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	identity := bot.GetBotIdentity(int(state.Tick))
	brain, err := bot.NewBrain(identity.Level, bot.Searcher{
		Plies:     state.BotPlies,
		Deepening: state.BotDeepening,
		CacheSize: state.BotCacheSize,
	})
	if err != nil {
		logger.Error("addBot: Failed to create brain for %s: %v", identity.UserID, err)
		return
	}

	events, err := state.Room.Join(identity.UserID)
	if err != nil {
		logger.Error("addBot: Failed to seat bot %s: %v", identity.UserID, err)
		return
	}
	side, _ := state.Room.SideOf(identity.UserID)
	agent := bot.NewAgent(identity, side, brain)
	state.Bots[identity.UserID] = agent

	logger.Info("processBots: Added bot %s (%s) as %s", agent.Name, identity.UserID, side)
	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, data, err := eventToFrame(ev, state.opponentName)
	if err != nil {
		logger.Error("Failed to encode event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If we had intended recipients but none are connected (e.g. they are bots),
		// we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// sendError sends an error frame to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	data, err := protocol.EncodeError(cause)
	if err != nil {
		logger.Error("Failed to marshal error frame: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state.Room)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
