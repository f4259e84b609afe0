package obd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const mode01Response = 0x41

var (
	// ErrNotAResponse marks lines that are not mode 01 responses (prompts,
	// echoes, "NO DATA" and similar adapter chatter).
	ErrNotAResponse = errors.New("obd: not a mode 01 response")
	// ErrUnknownPID marks responses for PIDs outside the table.
	ErrUnknownPID = errors.New("obd: unknown pid")
)

// Reading is one decoded sample, ready to be shipped to the backend.
type Reading struct {
	Key        string    `json:"key"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"ts"`
}

// ParseResponse decodes one adapter response line like "41 0C 1A F8".
// Hex bytes may be separated by spaces or run together.
func ParseResponse(line string, now time.Time) (Reading, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(line))
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" || strings.HasPrefix(cleaned, ">") {
		return Reading{}, ErrNotAResponse
	}
	if len(cleaned)%2 != 0 {
		return Reading{}, ErrNotAResponse
	}

	frame, err := hex.DecodeString(cleaned)
	if err != nil {
		return Reading{}, ErrNotAResponse
	}
	if len(frame) < 3 || frame[0] != mode01Response {
		return Reading{}, ErrNotAResponse
	}

	param, ok := Parameters[frame[1]]
	if !ok {
		return Reading{}, fmt.Errorf("%w: %02X", ErrUnknownPID, frame[1])
	}
	data := frame[2:]
	if len(data) < param.Length {
		return Reading{}, fmt.Errorf("obd: pid %02X needs %d data bytes, got %d", param.PID, param.Length, len(data))
	}

	return Reading{
		Key:        param.Key,
		Value:      param.Decode(data[:param.Length]),
		Unit:       param.Unit,
		RecordedAt: now,
	}, nil
}

// PollCommand renders the mode 01 request for a PID, e.g. "010D".
func PollCommand(pid byte) string {
	return fmt.Sprintf("01%02X", pid)
}
