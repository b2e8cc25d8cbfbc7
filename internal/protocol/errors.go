package protocol

import (
	"errors"

	"tictacchec/internal/app"
	"tictacchec/internal/domain"
)

// Stable error reasons sent in error frames.
const (
	ReasonInvalidTarget      = "invalid_target"
	ReasonPieceUnavailable   = "piece_unavailable"
	ReasonNotYourTurn        = "not_your_turn"
	ReasonIllegalGeometry    = "illegal_geometry"
	ReasonGameOver           = "game_over"
	ReasonPhaseViolation     = "phase_violation"
	ReasonRoomNotFound       = "room_not_found"
	ReasonRoomFull           = "room_full"
	ReasonRoomNotActive      = "room_not_active"
	ReasonRematchUnavailable = "rematch_unavailable"
	ReasonMalformed          = "malformed_message"
	ReasonUnknownType        = "unknown_message_type"
	ReasonRateLimited        = "rate_limited"
	ReasonInvalidSession     = "invalid_session"
	ReasonInternal           = "internal"
)

var reasons = []struct {
	err    error
	reason string
}{
	{domain.ErrInvalidTarget, ReasonInvalidTarget},
	{domain.ErrPieceUnavailable, ReasonPieceUnavailable},
	{domain.ErrNotYourTurn, ReasonNotYourTurn},
	{domain.ErrIllegalGeometry, ReasonIllegalGeometry},
	{domain.ErrGameOver, ReasonGameOver},
	{domain.ErrPhaseViolation, ReasonPhaseViolation},
	{app.ErrRoomNotFound, ReasonRoomNotFound},
	{app.ErrUnknownConnection, ReasonRoomNotFound},
	{app.ErrRoomFull, ReasonRoomFull},
	{app.ErrAlreadySeated, ReasonRoomFull},
	{app.ErrRoomNotActive, ReasonRoomNotActive},
	{app.ErrRematchUnavailable, ReasonRematchUnavailable},
	{ErrMalformed, ReasonMalformed},
	{ErrUnknownType, ReasonUnknownType},
	{ErrRateLimited, ReasonRateLimited},
	{app.ErrSessionTokenInvalid, ReasonInvalidSession},
}

// ReasonFor maps an error to its wire reason. Unrecognised errors, including
// domain.ErrInternal, are reported as internal.
func ReasonFor(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonInternal
}
