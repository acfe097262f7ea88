// Package bridge exposes a goal seeker over a websocket so an external agent
// can stream its pose and receive velocity commands.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/san-kum/goalseek/internal/dynamo"
)

const (
	TypePose    = "pose"
	TypeGoal    = "goal"
	TypeCmd     = "cmd"
	TypeArrived = "arrived"
)

var ErrMalformed = errors.New("malformed message")

// Envelope is the single JSON message shape used in both directions. Only
// the field named by Type is set.
type Envelope struct {
	Type string          `json:"type"`
	Pose *dynamo.Pose    `json:"pose,omitempty"`
	Goal *dynamo.Goal    `json:"goal,omitempty"`
	Cmd  *dynamo.Command `json:"cmd,omitempty"`
}

func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypePose:
		if env.Pose == nil {
			return nil, fmt.Errorf("%w: pose message without pose", ErrMalformed)
		}
	case TypeGoal:
		if env.Goal == nil {
			return nil, fmt.Errorf("%w: goal message without goal", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected type %q", ErrMalformed, env.Type)
	}
	return &env, nil
}

func CmdMessage(c dynamo.Command) *Envelope {
	return &Envelope{Type: TypeCmd, Cmd: &c}
}

func ArrivedMessage(g dynamo.Goal) *Envelope {
	return &Envelope{Type: TypeArrived, Goal: &g}
}

func (e *Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}
