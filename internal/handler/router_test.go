package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"quickdrop/internal/app/chat"
	"quickdrop/internal/app/storage"
	"quickdrop/internal/configs"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:         "development",
		Port:                8080,
		MaxContentBytes:     1000,
		MaxVoiceBytes:       1 << 20,
		ProfileRetention:    time.Hour,
		VoiceRetention:      time.Hour,
		VoiceStorageBackend: configs.StorageBackendFS,
		VoiceDir:            t.TempDir(),
	}

	store, err := storage.NewBlobStore(cfg)
	require.NoError(t, err)

	hub := chat.NewHub(cfg, store)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	srv := httptest.NewServer(Router(&AppDeps{Hub: hub, Config: cfg, Store: store}))
	t.Cleanup(srv.Close)

	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if res != nil {
		res.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// sendFrame writes one client event frame on the connection.
func sendFrame(t *testing.T, conn *websocket.Conn, eventType chat.EventType, payload any) {
	t.Helper()

	frame := struct {
		Type    chat.EventType `json:"type"`
		Payload any            `json:"payload,omitempty"`
	}{Type: eventType, Payload: payload}

	require.NoError(t, conn.WriteJSON(frame))
}

// readUntil reads events off the connection until one of the wanted type
// arrives, skipping everything else.
func readUntil(t *testing.T, conn *websocket.Conn, want chat.EventType) chat.Event {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))

		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)

		var ev chat.Event
		require.NoError(t, json.Unmarshal(raw, &ev))

		if ev.Type == want {
			return ev
		}
	}
}

func decodeAs[T any](t *testing.T, ev chat.Event) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(ev.Payload, &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	req.NoError(err)
	defer res.Body.Close()

	req.Equal(http.StatusOK, res.StatusCode)

	var body struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	req.NoError(json.NewDecoder(res.Body).Decode(&body))
	req.Equal(0, body.Code)
	req.Equal("ok", body.Data["status"])
}

func TestRelay_SessionLifecycle(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	a := dialWS(t, srv)
	welcomeA := decodeAs[chat.WelcomePayload](t, readUntil(t, a, chat.TypeSessionWelcome))
	req.NotEmpty(welcomeA.SessionID)

	snap := decodeAs[chat.MembershipSnapshotPayload](t, readUntil(t, a, chat.TypeMembershipSnapshot))
	req.Equal(1, snap.Count)

	b := dialWS(t, srv)
	welcomeB := decodeAs[chat.WelcomePayload](t, readUntil(t, b, chat.TypeSessionWelcome))
	req.NotEqual(welcomeA.SessionID, welcomeB.SessionID)

	// Both sides observe the grown membership.
	snap = decodeAs[chat.MembershipSnapshotPayload](t, readUntil(t, a, chat.TypeMembershipSnapshot))
	req.Equal(2, snap.Count)
	readUntil(t, b, chat.TypeMembershipSnapshot)

	// A introduces itself; everyone learns the new name.
	sendFrame(t, a, chat.TypeUpdateProfile, chat.ProfilePayload{DisplayName: "Alice"})

	updated := decodeAs[chat.ProfileUpdatedPayload](t, readUntil(t, b, chat.TypeProfileUpdated))
	req.Equal(welcomeA.SessionID, updated.SessionID)
	req.Equal("Alice", updated.Profile.DisplayName)
	readUntil(t, a, chat.TypeProfileUpdated)

	// A's messages now carry the resolved display name, echoed to A as well.
	sendFrame(t, a, chat.TypeSendMessage, chat.SendMessagePayload{Kind: chat.KindText, Content: "hello"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := decodeAs[chat.ReceiveMessagePayload](t, readUntil(t, conn, chat.TypeReceiveMessage))
		req.Equal(welcomeA.SessionID, msg.SenderID)
		req.Equal("Alice", msg.DisplayName)
		req.Equal("hello", msg.Content)
	}

	// B pins the message; the pin lands on both sides and in later welcomes.
	sendFrame(t, b, chat.TypePinMessage, chat.PinPayload{MessageID: "m-1"})

	pinned := decodeAs[chat.MessagePinnedPayload](t, readUntil(t, a, chat.TypeMessagePinned))
	req.Equal("m-1", pinned.MessageID)
	req.Equal(welcomeB.SessionID, pinned.SessionID)
	readUntil(t, b, chat.TypeMessagePinned)

	c := dialWS(t, srv)
	welcomeC := decodeAs[chat.WelcomePayload](t, readUntil(t, c, chat.TypeSessionWelcome))
	req.Len(welcomeC.Pinned, 1)
	req.Equal("m-1", welcomeC.Pinned[0].MessageID)

	// C leaves; the survivors see the departure and the shrunken membership.
	c.Close()

	ended := decodeAs[chat.SessionEndedPayload](t, readUntil(t, a, chat.TypeSessionEnded))
	req.Equal(welcomeC.SessionID, ended.SessionID)

	snap = decodeAs[chat.MembershipSnapshotPayload](t, readUntil(t, a, chat.TypeMembershipSnapshot))
	req.Equal(2, snap.Count)
	for _, m := range snap.Members {
		req.NotEqual(welcomeC.SessionID, m.SessionID)
	}
}

func TestRelay_MalformedFrameGetsErrorEvent(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	a := dialWS(t, srv)
	readUntil(t, a, chat.TypeMembershipSnapshot)

	req.NoError(a.WriteMessage(websocket.TextMessage, []byte("{not json")))

	ev := readUntil(t, a, chat.TypeError)
	errPayload := decodeAs[chat.ErrorPayload](t, ev)
	req.NotZero(errPayload.Code)
}

func TestRelay_VoiceRoundTrip(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	a := dialWS(t, srv)
	readUntil(t, a, chat.TypeMembershipSnapshot)

	b := dialWS(t, srv)
	readUntil(t, b, chat.TypeMembershipSnapshot)

	audio := []byte("RIFF0000WAVEfmt fake recording payload")
	sendFrame(t, a, chat.TypeSendVoice, chat.SendVoicePayload{Audio: audio, Duration: 2.5})

	voice := decodeAs[chat.ReceiveVoicePayload](t, readUntil(t, b, chat.TypeReceiveVoice))
	req.True(strings.HasPrefix(voice.Reference, storage.VoicePathPrefix))
	req.Equal(2.5, voice.Duration)

	// The broadcast reference resolves over HTTP to the stored bytes.
	res, err := http.Get(srv.URL + voice.Reference)
	req.NoError(err)
	defer res.Body.Close()

	req.Equal(http.StatusOK, res.StatusCode)

	fetched, err := io.ReadAll(res.Body)
	req.NoError(err)
	req.Equal(audio, fetched)
}

func TestVoiceDownload_UnknownKeyIs404(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/voices/does-not-exist.wav")
	req.NoError(err)
	defer res.Body.Close()

	req.Equal(http.StatusNotFound, res.StatusCode)
}
