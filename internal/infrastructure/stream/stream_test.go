// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

const (
	testKey    = "key-123"
	testSecret = "secret-456"
)

func testConfig(url string) Config {
	return Config{
		APIKey:         testKey,
		APISecret:      testSecret,
		VideoBaseURL:   url,
		ChatBaseURL:    url,
		AgentBridgeURL: url,
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)

	server, err := issuer.ServerToken()
	require.NoError(t, err)
	tok, err := jwt.Parse([]byte(server), jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	claim, ok := tok.Get("server")
	require.True(t, ok)
	assert.Equal(t, true, claim)

	user, err := issuer.UserToken("u1", time.Hour)
	require.NoError(t, err)
	tok, err = jwt.Parse([]byte(user), jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	claim, ok = tok.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "u1", claim)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiration(), time.Minute)

	_, err = jwt.Parse([]byte(user), jwt.WithKey(jwa.HS256, []byte("other secret")))
	assert.Error(t, err)

	_, err = issuer.UserToken("", time.Hour)
	assert.Error(t, err)
}

func TestClient_AuthenticatesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testKey, r.URL.Query().Get("api_key"))
		assert.Equal(t, "jwt", r.Header.Get("stream-auth-type"))
		_, err := jwt.Parse([]byte(r.Header.Get("Authorization")), jwt.WithKey(jwa.HS256, []byte(testSecret)))
		assert.NoError(t, err)
		assert.Equal(t, "/call/default/m1/mark_ended", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	video := NewVideoClient(testConfig(srv.URL), nil)
	require.NoError(t, video.EndCall(context.Background(), "default", "m1"))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	video := NewVideoClient(testConfig(srv.URL), nil)
	require.NoError(t, video.EndCall(context.Background(), "default", "m1"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	video := NewVideoClient(testConfig(srv.URL), nil)
	err := video.EndCall(context.Background(), "default", "m1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer srv.Close()

	chat := NewChatClient(testConfig(srv.URL), nil)
	err := chat.UpsertUser(context.Background(), models.ChatUser{ID: "a1"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestVideoClient_EndCallNotFoundIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	video := NewVideoClient(testConfig(srv.URL), nil)
	assert.NoError(t, video.EndCall(context.Background(), "default", "gone"))
}

func TestVideoClient_ConnectAgent(t *testing.T) {
	var got connectAgentRequest
	var greeting agentMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/agents/connect":
			assert.NoError(t, json.Unmarshal(body, &got))
		case "/agents/a1/messages":
			assert.NoError(t, json.Unmarshal(body, &greeting))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	video := NewVideoClient(testConfig(srv.URL), nil)
	ctx := context.Background()
	require.NoError(t, video.ConnectAgent(ctx, "default", "m1", domain.AgentSession{
		AgentID: "a1", Instructions: "Be brief.", Voice: "alloy",
	}))
	require.NoError(t, video.SendAgentMessage(ctx, "default", "m1", "a1", "Hello?"))

	assert.Equal(t, connectAgentRequest{CallType: "default", CallID: "m1", AgentUserID: "a1", Instructions: "Be brief.", Voice: "alloy"}, got)
	assert.Equal(t, agentMessageRequest{CallType: "default", CallID: "m1", Text: "Hello?"}, greeting)

	cfg := testConfig(srv.URL)
	cfg.AgentBridgeURL = ""
	err := NewVideoClient(cfg, nil).ConnectAgent(ctx, "default", "m1", domain.AgentSession{AgentID: "a1"})
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
}

func TestChatClient(t *testing.T) {
	var upserted upsertUsersRequest
	var sent sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/channels/messaging/m1/query":
			var req queryChannelRequest
			assert.NoError(t, json.Unmarshal(body, &req))
			assert.True(t, req.Watch)
			_, _ = w.Write([]byte(`{"messages":[
				{"id":"1","text":"hi","user":{"id":"u1"}},
				{"id":"2","text":"hello","user":{"id":"a1"}}
			]}`))
		case "/users":
			assert.NoError(t, json.Unmarshal(body, &upserted))
		case "/channels/messaging/m1/message":
			assert.NoError(t, json.Unmarshal(body, &sent))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	chat := NewChatClient(testConfig(srv.URL), nil)
	ctx := context.Background()

	messages, err := chat.QueryChannel(ctx, "messaging", "m1")
	require.NoError(t, err)
	assert.Equal(t, []models.ChatMessage{
		{ID: "1", Text: "hi", UserID: "u1"},
		{ID: "2", Text: "hello", UserID: "a1"},
	}, messages)

	agent := models.ChatUser{ID: "a1", Name: "Tutor", Image: "https://img"}
	require.NoError(t, chat.UpsertUser(ctx, agent))
	assert.Equal(t, agent, upserted.Users["a1"])

	require.NoError(t, chat.SendMessage(ctx, "messaging", "m1", agent, "answer"))
	assert.Equal(t, "answer", sent.Message.Text)
	assert.Equal(t, "a1", sent.Message.UserID)
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(500, nil))
	assert.True(t, shouldRetry(429, nil))
	assert.False(t, shouldRetry(404, nil))
	assert.False(t, shouldRetry(200, nil))
	assert.True(t, shouldRetry(0, io.ErrUnexpectedEOF))
	assert.False(t, shouldRetry(0, context.Canceled))
}
