package nakama

import (
	"fmt"

	"tictacchec/internal/app"
	"tictacchec/internal/domain"
	"tictacchec/internal/protocol"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var eventOpCodes = map[app.EventKind]int64{
	app.EventRoomCreated:      OpRoomCreated,
	app.EventRoomJoined:       OpRoomJoined,
	app.EventStateUpdate:      OpStateUpdate,
	app.EventDisconnectNotice: OpDisconnectNotice,
	app.EventRematchRequested: OpRematchRequested,
}

// eventToFrame maps an app event to its op code and wire frame. opponentName
// fills in the opponent of the recipient's side on room_joined frames.
func eventToFrame(ev app.Event, opponentName func(domain.Side) string) (int64, []byte, error) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		return 0, nil, fmt.Errorf("no op code for event %s", ev.Kind)
	}
	msgType, payload, err := protocol.FromEvent(ev)
	if err != nil {
		return 0, nil, err
	}
	if joined, ok := payload.(protocol.RoomJoined); ok && opponentName != nil {
		if p, ok := ev.Payload.(app.RoomJoinedPayload); ok {
			joined.OpponentName = opponentName(p.Side)
			payload = joined
		}
	}
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return 0, nil, err
	}
	return opCode, data, nil
}

// opCodeTypes pairs each client op code with the message type its frame must carry.
var opCodeTypes = map[int64]string{
	OpSubmitAction:   protocol.TypeSubmitAction,
	OpRequestRematch: protocol.TypeRequestRematch,
}

// decodeClientFrame parses data and checks it matches opCode.
func decodeClientFrame(opCode int64, data []byte) (any, error) {
	want, ok := opCodeTypes[opCode]
	if !ok {
		return nil, fmt.Errorf("%w: op code %d", protocol.ErrUnknownType, opCode)
	}
	msg, err := protocol.DecodeClient(data)
	if err != nil {
		return nil, err
	}
	var got string
	switch msg.(type) {
	case protocol.SubmitAction:
		got = protocol.TypeSubmitAction
	case protocol.RequestRematch:
		got = protocol.TypeRequestRematch
	}
	if got != want {
		return nil, fmt.Errorf("%w: op code %d carries another message type", protocol.ErrMalformed, opCode)
	}
	return msg, nil
}

// matchLabel renders the match label queried by quick_match.
func matchLabel(room *app.Room) (string, error) {
	open := 0
	if room.Open() {
		open = app.RoomCapacity - room.Occupants()
	}
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKey_Open: open,
		"game":             matchLabelGame,
		"status":           string(room.Status),
	})
	if err != nil {
		return "", err
	}
	labelBytes, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(labelBytes), nil
}
