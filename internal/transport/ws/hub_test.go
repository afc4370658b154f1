package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func recv(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		if !ok {
			t.Fatal("connection closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func expectNothing(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.Send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoutesBySessionAndSurvey(t *testing.T) {
	hub := NewHub()

	mgrA := &Connection{SurveyID: "s1", AccountID: "a1", IsManager: true, Send: make(chan []byte, 8)}
	mgrB := &Connection{SurveyID: "s1", AccountID: "a1", IsManager: true, Send: make(chan []byte, 8)}
	other := &Connection{SurveyID: "s2", AccountID: "a2", IsManager: true, Send: make(chan []byte, 8)}
	hub.Register(mgrA)
	hub.Register(mgrB)
	hub.Register(other)

	resp := &Connection{SurveyID: "s1", SessionID: "sess-1", Send: make(chan []byte, 8)}
	hub.Register(resp)

	for _, m := range []*Connection{mgrA, mgrB} {
		if got := recv(t, m); got.Type != MsgRespondentConnected {
			t.Errorf("manager got %s, want respondent_connected", got.Type)
		}
	}

	hub.ToRespondent("sess-1", "next_question", map[string]int{"questionIndex": 1})
	msg := recv(t, resp)
	if msg.Type != "next_question" || string(msg.Payload) != `{"questionIndex":1}` {
		t.Errorf("respondent got %+v", msg)
	}

	hub.ToManagers("s1", "session_completed", map[string]string{"sessionId": "sess-1"})
	for _, m := range []*Connection{mgrA, mgrB} {
		if got := recv(t, m); got.Type != "session_completed" {
			t.Errorf("manager got %s", got.Type)
		}
	}
	expectNothing(t, other)
	expectNothing(t, resp)
}

func TestHubReconnectReplacesRespondent(t *testing.T) {
	hub := NewHub()

	first := &Connection{SurveyID: "s1", SessionID: "sess-1", Send: make(chan []byte, 8)}
	second := &Connection{SurveyID: "s1", SessionID: "sess-1", Send: make(chan []byte, 8)}
	hub.Register(first)
	hub.Register(second)

	select {
	case _, ok := <-first.Send:
		if ok {
			t.Fatal("first connection should be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("first connection was not closed")
	}

	// unregistering the stale connection must not drop the new one
	hub.Unregister(first)
	hub.ToRespondent("sess-1", "next_question", nil)
	if got := recv(t, second); got.Type != "next_question" {
		t.Errorf("got %s", got.Type)
	}
}
