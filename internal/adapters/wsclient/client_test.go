package wsclient

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpadapter "github.com/dkeye/duet/internal/adapters/http"
	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/config"
	"github.com/dkeye/duet/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type inbox struct {
	mu     sync.Mutex
	events []domain.Event
}

func (in *inbox) add(ev domain.Event) {
	in.mu.Lock()
	in.events = append(in.events, ev)
	in.mu.Unlock()
}

func (in *inbox) get() []domain.Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]domain.Event(nil), in.events...)
}

func startRelay(t *testing.T) (string, *app.Relay) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &config.Config{Mode: "test", Secret: secret, PingPeriod: time.Minute, Call: config.CallConfig{MaxParticipants: 2}}
	relay := app.NewRelay(nil, nil)
	srv := httptest.NewServer(httpadapter.SetupRouter(ctx, cfg, relay, nil))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal", relay
}

func startClient(t *testing.T, url string, id domain.UserID) *Client {
	t.Helper()
	tok, err := httpadapter.IssueToken([]byte(secret), domain.Participant{ID: id}, time.Hour)
	require.NoError(t, err)
	c := New(url, tok)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-c.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}
	require.True(t, c.Connected())
	return c
}

func TestSendIsDroppedWhileDisconnected(t *testing.T) {
	c := New("ws://127.0.0.1:1/api/ws/signal", "tok")
	err := c.Send(context.Background(), domain.Event{Type: domain.EventInvite, CallID: "conv-1", To: "bob"})
	require.ErrorIs(t, err, domain.ErrSignalingUnavailable)
}

func TestEventsRoundTripThroughRelay(t *testing.T) {
	url, relay := startRelay(t)
	alice := startClient(t, url, "alice")
	bob := startClient(t, url, "bob")
	require.Eventually(t, func() bool { return relay.Registry.Len() == 2 }, 2*time.Second, 5*time.Millisecond)

	var got inbox
	cancel := bob.Subscribe(got.add)

	caller := domain.Participant{ID: "alice", DisplayName: "Alice"}
	inv := domain.NewInvite("conv-1", caller, domain.Participant{ID: "bob"}, time.Now())
	require.NoError(t, alice.Send(context.Background(), inv))
	require.NoError(t, alice.Send(context.Background(), domain.Event{Type: domain.EventEndCall, CallID: "conv-1", From: "alice", To: "bob"}))

	require.Eventually(t, func() bool { return len(got.get()) == 2 }, 2*time.Second, 5*time.Millisecond)
	events := got.get()
	assert.Equal(t, domain.EventInvite, events[0].Type)
	assert.Equal(t, "Alice", events[0].Caller().DisplayName)
	assert.Equal(t, domain.EventRemoteEnded, events[1].Type)

	cancel()
	require.NoError(t, alice.Send(context.Background(), domain.Event{Type: domain.EventCancel, CallID: "conv-1", To: "bob"}))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, got.get(), 2, "unsubscribed handler sees nothing more")
}

func TestRelayErrorsAreReported(t *testing.T) {
	url, _ := startRelay(t)
	alice := startClient(t, url, "alice")

	codes := make(chan string, 1)
	alice.OnRelayError(func(code string, id domain.CallID) {
		if id == "conv-1" {
			codes <- code
		}
	})
	require.NoError(t, alice.Send(context.Background(), domain.Event{Type: domain.EventAccept, CallID: "conv-1", To: "nobody"}))
	select {
	case code := <-codes:
		assert.Equal(t, "recipient_offline", code)
	case <-time.After(2 * time.Second):
		t.Fatal("no relay error")
	}
}

func TestDroppedConnectionEndsRun(t *testing.T) {
	url, relay := startRelay(t)
	tok, err := httpadapter.IssueToken([]byte(secret), domain.Participant{ID: "alice"}, time.Hour)
	require.NoError(t, err)
	alice := New(url, tok)

	errc := make(chan error, 1)
	go func() { errc <- alice.Run(context.Background()) }()
	require.Eventually(t, func() bool { return alice.Connected() && relay.Registry.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.True(t, relay.Registry.Cancel("alice"))
	select {
	case err := <-errc:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.False(t, alice.Connected())
	err = alice.Send(context.Background(), domain.Event{Type: domain.EventCancel, CallID: "conv-1", To: "bob"})
	require.ErrorIs(t, err, domain.ErrSignalingUnavailable)
}

func TestRunFailsWhenRelayUnreachable(t *testing.T) {
	c := New("ws://127.0.0.1:1/api/ws/signal", "tok")
	require.ErrorIs(t, c.Run(context.Background()), domain.ErrSignalingUnavailable)
}

func TestReadyStaysOpenWhenRelayUnreachable(t *testing.T) {
	c := New("ws://127.0.0.1:1/api/ws/signal", "tok")
	require.Error(t, c.Run(context.Background()))
	select {
	case <-c.Ready():
		t.Fatal("ready without a connection")
	default:
	}
}
