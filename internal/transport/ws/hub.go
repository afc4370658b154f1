package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Hub-originated message types; service events pass through unchanged
const (
	MsgRespondentConnected    MessageType = "respondent_connected"
	MsgRespondentDisconnected MessageType = "respondent_disconnected"
	MsgError                  MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans out session events. A respondent holds one connection per
// session; any number of managers can watch a survey.
type Hub struct {
	respondentConns map[string]*Connection              // sessionID -> conn
	managerConns    map[string]map[*Connection]struct{} // surveyID -> conns

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	SurveyID  string
	SessionID string // empty for manager connections
	AccountID string // empty for respondent connections
	IsManager bool
	Send      chan []byte
}

// BroadcastMessage is a message addressed to one respondent or to a survey's managers
type BroadcastMessage struct {
	SurveyID  string
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		respondentConns: make(map[string]*Connection),
		managerConns:    make(map[string]map[*Connection]struct{}),
		register:        make(chan *Connection),
		unregister:      make(chan *Connection),
		broadcast:       make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsManager {
				if h.managerConns[conn.SurveyID] == nil {
					h.managerConns[conn.SurveyID] = make(map[*Connection]struct{})
				}
				h.managerConns[conn.SurveyID][conn] = struct{}{}
				slog.Info("manager connected", "survey_id", conn.SurveyID, "account_id", conn.AccountID)
			} else {
				// a reconnect replaces the previous tab
				if old, ok := h.respondentConns[conn.SessionID]; ok {
					close(old.Send)
				}
				h.respondentConns[conn.SessionID] = conn
				slog.Info("respondent connected", "session_id", conn.SessionID)
				h.sendToManagers(conn.SurveyID, encode(MsgRespondentConnected, map[string]string{"sessionId": conn.SessionID}))
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsManager {
				if conns, ok := h.managerConns[conn.SurveyID]; ok {
					if _, ok := conns[conn]; ok {
						delete(conns, conn)
						close(conn.Send)
						if len(conns) == 0 {
							delete(h.managerConns, conn.SurveyID)
						}
					}
				}
			} else if existing, ok := h.respondentConns[conn.SessionID]; ok && existing == conn {
				delete(h.respondentConns, conn.SessionID)
				close(conn.Send)
				slog.Info("respondent disconnected", "session_id", conn.SessionID)
				h.sendToManagers(conn.SurveyID, encode(MsgRespondentDisconnected, map[string]string{"sessionId": conn.SessionID}))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				slog.Error("failed to encode ws message", "type", msg.Message.Type, "error", err)
				continue
			}
			h.mu.RLock()
			if msg.SessionID != "" {
				if conn, ok := h.respondentConns[msg.SessionID]; ok {
					trySend(conn, data)
				}
			} else {
				h.sendToManagers(msg.SurveyID, data)
			}
			h.mu.RUnlock()
		}
	}
}

// sendToManagers must be called with mu held
func (h *Hub) sendToManagers(surveyID string, data []byte) {
	if data == nil {
		return
	}
	for conn := range h.managerConns[surveyID] {
		trySend(conn, data)
	}
}

// trySend drops the message if the client is not keeping up
func trySend(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
	}
}

func encode(msgType MessageType, payload interface{}) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(&Message{Type: msgType, Payload: raw})
	if err != nil {
		return nil
	}
	return data
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// ToRespondent sends a message to the respondent of a session (implements service.Broadcaster)
func (h *Hub) ToRespondent(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode ws payload", "type", msgType, "error", err)
		return
	}
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message:   &Message{Type: MessageType(msgType), Payload: data},
	}
}

// ToManagers sends a message to every manager watching a survey (implements service.Broadcaster)
func (h *Hub) ToManagers(surveyID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode ws payload", "type", msgType, "error", err)
		return
	}
	h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message:  &Message{Type: MessageType(msgType), Payload: data},
	}
}
