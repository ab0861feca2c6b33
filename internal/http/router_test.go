package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	httptransport "wayfarer/internal/http"
	"wayfarer/internal/http/handlers"
	"wayfarer/internal/infra"
	"wayfarer/internal/modules/conversation"
	"wayfarer/internal/modules/provider"
	"wayfarer/internal/realtime"
	"wayfarer/internal/service/assistant"
	"wayfarer/internal/service/turns"
	"wayfarer/internal/types"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, req assistant.Request) assistant.Reply {
	last, _ := types.LatestUserTurn(req.History)
	return assistant.Reply{Text: "re: " + last.Content, State: assistant.StateGenerationSucceeded}
}

// uidVerifier treats the raw token as the uid.
type uidVerifier struct{}

func (uidVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.CallerToken, error) {
	if raw == "bad" {
		return nil, errors.New("bad token")
	}
	return &infra.CallerToken{UID: raw}, nil
}

type providerStatus struct {
	state    provider.State
	disabled bool
}

func (p *providerStatus) State() provider.State { return p.state }
func (p *providerStatus) AuthDisabled() bool    { return p.disabled }

type fixture struct {
	router   *gin.Engine
	convs    *conversation.Service
	provider *providerStatus
}

func newFixture(t *testing.T, verifier infra.TokenVerifier, checks map[string]handlers.Check) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	convs := conversation.NewService(conversation.NewMemoryStore())
	hub := realtime.NewHub(nil)
	d := turns.NewDispatcher(context.Background())
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	svc := turns.NewService(convs, echoResponder{}, hub, d, time.Second, nil)
	status := &providerStatus{}
	r := httptransport.NewRouter(httptransport.RouterDeps{
		Conversations: convs,
		Turns:         svc,
		Hub:           hub,
		Verifier:      verifier,
		Checks:        checks,
		Provider:      status,
	})
	return fixture{router: r, convs: convs, provider: status}
}

func (f fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f fixture) createConversation(t *testing.T, token string) conversation.Conversation {
	t.Helper()
	w := f.do(http.MethodPost, "/api/conversations", token, map[string]string{"title": "Lisbon"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var conv conversation.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	return conv
}

func (f fixture) messages(t *testing.T, id, token string) []conversation.Message {
	t.Helper()
	w := f.do(http.MethodGet, "/api/conversations/"+id+"/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Messages []conversation.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Messages
}

func TestConversationLifecycle(t *testing.T) {
	f := newFixture(t, nil, nil)
	conv := f.createConversation(t, "")
	require.Equal(t, conversation.AnonymousOwner, conv.OwnerID)
	require.Equal(t, "Lisbon", conv.Title)
	id := conv.ID.String()

	w := f.do(http.MethodPost, "/api/conversations/"+id+"/messages", "", map[string]string{"content": "hello"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var stored conversation.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	require.Equal(t, types.RoleUser, stored.Role)

	var msgs []conversation.Message
	require.Eventually(t, func() bool {
		msgs = f.messages(t, id, "")
		return len(msgs) == 2
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, "re: hello", msgs[1].Content)

	w = f.do(http.MethodDelete, "/api/messages/"+msgs[1].ID.String(), "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodDelete, "/api/messages/"+msgs[1].ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, "/api/conversations/"+id+"/messages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"deleted":1}`, w.Body.String())
	require.Empty(t, f.messages(t, id, ""))
}

func TestConversationValidation(t *testing.T) {
	f := newFixture(t, nil, nil)
	conv := f.createConversation(t, "")

	w := f.do(http.MethodPost, "/api/conversations/"+conv.ID.String()+"/messages", "", map[string]string{"content": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodPost, "/api/conversations/"+conv.ID.String()+"/messages", "", map[string]string{"content": strings.Repeat("x", conversation.MaxContentLength+1)})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/api/conversations/not-a-uuid/messages", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodGet, "/api/conversations/6f1c2f4e-3c1d-4d7a-9a57-5f2f0b2d9c11/messages", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationOwnership(t *testing.T) {
	f := newFixture(t, uidVerifier{}, nil)

	w := f.do(http.MethodPost, "/api/conversations", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do(http.MethodPost, "/api/conversations", "bad", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	conv := f.createConversation(t, "alice")
	require.Equal(t, "alice", conv.OwnerID)
	path := "/api/conversations/" + conv.ID.String() + "/messages"

	require.Equal(t, http.StatusForbidden, f.do(http.MethodGet, path, "mallory", nil).Code)
	require.Equal(t, http.StatusForbidden, f.do(http.MethodPost, path, "mallory", map[string]string{"content": "hi"}).Code)
	require.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, path, "mallory", nil).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, path, "alice", nil).Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, uidVerifier{}, map[string]handlers.Check{
		"postgres": func(context.Context) error { return nil },
	})
	w := f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"initialized":false`)

	f.provider.state = provider.State{Initialized: true, CredentialsPresent: true}
	f.provider.disabled = true
	w = f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"auth_disabled":true`)
	require.Contains(t, w.Body.String(), `"initialized":true`)

	f = newFixture(t, nil, map[string]handlers.Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "connection refused")
}

func TestWebSocketReceivesReplies(t *testing.T) {
	f := newFixture(t, nil, nil)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)
	conv := f.createConversation(t, "")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	read := func() realtime.ServerFrame {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame realtime.ServerFrame
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}

	require.NoError(t, conn.WriteJSON(realtime.ClientFrame{Action: realtime.ActionJoin, ConversationID: "not-a-uuid"}))
	require.Equal(t, realtime.EventError, read().Event)

	require.NoError(t, conn.WriteJSON(realtime.ClientFrame{Action: realtime.ActionJoin, ConversationID: conv.ID.String()}))
	require.Equal(t, realtime.EventJoined, read().Event)

	w := f.do(http.MethodPost, "/api/conversations/"+conv.ID.String()+"/messages", "", map[string]string{"content": "ping"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var contents []string
	for len(contents) < 2 {
		frame := read()
		require.Equal(t, realtime.EventNewMessage, frame.Event)
		data := frame.Data.(map[string]any)
		contents = append(contents, data["content"].(string))
	}
	require.Equal(t, []string{"ping", "re: ping"}, contents)
}
