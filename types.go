package main

import "time"

// ClientMessage is a message from client to server. Exactly one of the
// message kind fields should be set.
type ClientMessage struct {
	ID string `json:"id,omitempty"`

	// "start chatting": enter the waiting queue with an interest tag.
	Start *MsgClientStart `json:"start,omitempty"`
	// "stop queuing": cancel a pending queue entry.
	Stop *MsgClientStop `json:"stop,omitempty"`
	// "chat message": relay a message to the partner in a room.
	Chat *MsgClientChat `json:"chat,omitempty"`
	// "typing": the client started typing.
	Typing *MsgClientTyping `json:"typing,omitempty"`
	// "stopped typing": the client stopped typing.
	StopTyping *MsgClientTyping `json:"stopTyping,omitempty"`
	// "leave room": leave, notifying the partner.
	Leave *MsgClientLeave `json:"leave,omitempty"`
	// "confirm leave": force the room closed for both parties.
	Confirm *MsgClientLeave `json:"confirm,omitempty"`
}

// ServerMessage is a message from server to client.
type ServerMessage struct {
	// Control message (response to a client request)
	Ctrl *MsgServerCtrl `json:"ctrl,omitempty"`
	// Queueing status change
	Queue *MsgServerQueue `json:"queue,omitempty"`
	// Match notification
	Matched *MsgServerMatched `json:"matched,omitempty"`
	// Relayed chat message
	Chat *MsgServerChat `json:"chat,omitempty"`
	// Typing indicator from the partner
	Info *MsgServerInfo `json:"info,omitempty"`
	// Partner presence change (left, disconnected, force leave)
	Pres *MsgServerPres `json:"pres,omitempty"`
}

// MsgClientStart requests entry into the waiting queue.
type MsgClientStart struct {
	// Interest is the free-text matching tag. May be empty; empty tags
	// are never matched.
	Interest string `json:"interest"`
}

// MsgClientStop cancels a pending queue entry.
type MsgClientStop struct{}

// MsgClientChat is a chat message for the partner.
type MsgClientChat struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// MsgClientTyping is a typing indicator, used for both the start and stop
// variants.
type MsgClientTyping struct {
	Room string `json:"room"`
}

// MsgClientLeave identifies the room being left, used for both the normal
// and confirmed variants.
type MsgClientLeave struct {
	Room string `json:"room"`
}

// MsgServerCtrl is a control/response message.
type MsgServerCtrl struct {
	ID     string         `json:"id,omitempty"`
	Code   int            `json:"code"`
	Text   string         `json:"text,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Ts     time.Time      `json:"ts"`
}

// MsgServerQueue reports whether the session is currently queuing.
type MsgServerQueue struct {
	Queuing bool `json:"queuing"`
}

// MsgServerMatched carries the room id of a successful match.
type MsgServerMatched struct {
	Room string `json:"room"`
}

// MsgServerChat is a relayed chat message.
type MsgServerChat struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// MsgServerInfo is a transient in-room signal.
type MsgServerInfo struct {
	Room string `json:"room"`
	// What is "user typing" or "user stopped typing".
	What string `json:"what"`
}

// MsgServerPres is a partner presence notification.
type MsgServerPres struct {
	// What is "partner left", "partner disconnected", or "force leave".
	What    string `json:"what"`
	Message string `json:"message,omitempty"`
}

// Info event names.
const (
	InfoUserTyping        = "user typing"
	InfoUserStoppedTyping = "user stopped typing"
)

// Presence event names.
const (
	PresPartnerLeft         = "partner left"
	PresPartnerDisconnected = "partner disconnected"
	PresForceLeave          = "force leave"
)

// Human-readable notification texts, matching what clients display.
const (
	textPartnerLeft         = "Your chat partner has left the room."
	textPartnerDisconnected = "Your chat partner has disconnected."
	textLeftRoom            = "You have left the room."
)

// ============================================================================
// Response Helpers
// ============================================================================

// CtrlSuccess creates a success response.
func CtrlSuccess(id string, code int, text string, params map[string]any) *ServerMessage {
	return &ServerMessage{
		Ctrl: &MsgServerCtrl{
			ID:     id,
			Code:   code,
			Text:   text,
			Params: params,
			Ts:     time.Now().UTC(),
		},
	}
}

// CtrlError creates an error response.
func CtrlError(id string, code int, text string) *ServerMessage {
	return &ServerMessage{
		Ctrl: &MsgServerCtrl{
			ID:   id,
			Code: code,
			Text: text,
			Ts:   time.Now().UTC(),
		},
	}
}

// QueueStatus creates a queuing status notification.
func QueueStatus(queuing bool) *ServerMessage {
	return &ServerMessage{Queue: &MsgServerQueue{Queuing: queuing}}
}

// MatchedIn creates a match notification.
func MatchedIn(roomID string) *ServerMessage {
	return &ServerMessage{Matched: &MsgServerMatched{Room: roomID}}
}

// ChatFrom creates a relayed chat message.
func ChatFrom(sender, message string) *ServerMessage {
	return &ServerMessage{Chat: &MsgServerChat{Sender: sender, Message: message}}
}

// TypingInfo creates a typing indicator notification.
func TypingInfo(roomID, what string) *ServerMessage {
	return &ServerMessage{Info: &MsgServerInfo{Room: roomID, What: what}}
}

// Presence creates a partner presence notification.
func Presence(what, message string) *ServerMessage {
	return &ServerMessage{Pres: &MsgServerPres{What: what, Message: message}}
}

// Common response codes
const (
	CodeOK              = 200
	CodeBadRequest      = 400
	CodeConflict        = 409
	CodeTooManyRequests = 429
)
