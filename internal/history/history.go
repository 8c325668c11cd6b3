// Package history models a per-chat conversation as an ordered sequence of
// turns. The same sequence serves as the display log and as the exact
// context sent to the model.
package history

import "encoding/json"

// Role tags a turn with its speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered sequence of turns for one chat, oldest first.
type History []Turn

// Append returns a new history with the turn added at the end. The input
// slice is never mutated, so a history already handed to the store cannot
// alias the appended copy.
func Append(h History, role Role, content string) History {
	out := make(History, 0, len(h)+1)
	out = append(out, h...)
	out = append(out, Turn{Role: role, Content: content})
	return out
}

// RequestMessages projects the history into the outbound request message
// list: a verbatim ordered copy, no truncation, filtering, or reordering.
func RequestMessages(h History) []Turn {
	out := make([]Turn, len(h))
	copy(out, h)
	return out
}

// Marshal serializes the history to the JSON array form stored per chat.
func Marshal(h History) ([]byte, error) {
	if h == nil {
		h = History{}
	}
	return json.Marshal(h)
}

// Unmarshal decodes a stored history blob. A decode error is returned so
// the store can degrade to an empty history explicitly.
func Unmarshal(data []byte) (History, error) {
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return h, nil
}
