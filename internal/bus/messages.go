// Package bus carries messages between the background coordinator and the
// agents injected into a page. The message set is closed: ShowPanel and
// FallbackNotification, each serialized as a JSON object tagged by "type".
package bus

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

const (
	KindShowPanel            Kind = "SHOW_MISINFO_PANEL"
	KindFallbackNotification Kind = "FALLBACK_NOTIFICATION"
)

var ErrUnknownMessage = errors.New("unknown message type")

// Message is implemented only by the types in this package.
type Message interface {
	Kind() Kind
	isMessage()
}

// ShowPanel asks the panel agent to analyze Headline. Receiving it again
// restarts the panel.
type ShowPanel struct {
	Headline   string            `json:"headline"`
	APIURL     string            `json:"apiUrl"`
	Icons      map[string]string `json:"icons"`
	MGIcon     string            `json:"mgIcon"`
	MGTitleImg string            `json:"mgTitleImg"`
	RequestID  string            `json:"requestId,omitempty"`
}

func (ShowPanel) Kind() Kind { return KindShowPanel }
func (ShowPanel) isMessage() {}

func (m ShowPanel) MarshalJSON() ([]byte, error) {
	type alias ShowPanel
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindShowPanel, alias(m)})
}

// FallbackNotification asks the coordinator to raise a system notification.
// It is fire-and-forget.
type FallbackNotification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (FallbackNotification) Kind() Kind { return KindFallbackNotification }
func (FallbackNotification) isMessage() {}

func (m FallbackNotification) MarshalJSON() ([]byte, error) {
	type alias FallbackNotification
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindFallbackNotification, alias(m)})
}

// Ack is the optional reply to a message.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

func Decode(data []byte) (Message, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case KindShowPanel:
		var m ShowPanel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	case KindFallbackNotification:
		var m FallbackNotification
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
}
