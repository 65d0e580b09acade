package protocol

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one client frame. A recognized tag yields its command; an
// unrecognized tag yields (nil, nil) so callers can drop it silently.
// Malformed JSON is an error; the room logs it at debug and moves on.
func Decode(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case "input":
		return decodeAs[Input](data)
	case "throw":
		return decodeAs[Throw](data)
	case "drop_flag":
		return decodeAs[DropFlag](data)
	case "ready":
		return decodeAs[Ready](data)
	case "select_team":
		return decodeAs[SelectTeam](data)
	case "set_nickname":
		return decodeAs[SetNickname](data)
	case "update_config":
		return decodeAs[UpdateConfig](data)
	case "select_map":
		return decodeAs[SelectMap](data)
	case "start_game":
		return decodeAs[StartGame](data)
	case "reset_game":
		return decodeAs[ResetGame](data)
	default:
		return nil, nil
	}
}

func decodeAs[T Command](data []byte) (Command, error) {
	var cmd T
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("decode %T: %w", cmd, err)
	}
	return cmd, nil
}

// EncodeCommand marshals a client command with its type tag; the client
// pump and tests use it so tag strings live in exactly one file.
func EncodeCommand(cmd Command) ([]byte, error) {
	tag, ok := commandTag(cmd)
	if !ok {
		return nil, fmt.Errorf("encode: unsupported command %T", cmd)
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}

	// Splice the tag into the flat object.
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", tag, err)
	}
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

func commandTag(cmd Command) (string, bool) {
	switch cmd.(type) {
	case Input:
		return "input", true
	case Throw:
		return "throw", true
	case DropFlag:
		return "drop_flag", true
	case Ready:
		return "ready", true
	case SelectTeam:
		return "select_team", true
	case SetNickname:
		return "set_nickname", true
	case UpdateConfig:
		return "update_config", true
	case SelectMap:
		return "select_map", true
	case StartGame:
		return "start_game", true
	case ResetGame:
		return "reset_game", true
	default:
		return "", false
	}
}
