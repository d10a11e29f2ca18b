package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/duet/internal/app/orch"
	"github.com/dkeye/duet/internal/config"
	"github.com/dkeye/duet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	calls  []string
	err    error
	callee domain.Participant
	base   string
}

func (f *fakeController) Invite(_ context.Context, base string, callee domain.Participant) (domain.CallID, error) {
	f.calls = append(f.calls, "invite")
	f.base, f.callee = base, callee
	return domain.CallID(base + "-1"), f.err
}

func (f *fakeController) CallAgain(context.Context) (domain.CallID, error) {
	f.calls = append(f.calls, "again")
	return "call-2", f.err
}

func (f *fakeController) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeController) Accept(context.Context) error  { return f.record("accept") }
func (f *fakeController) Decline(context.Context) error { return f.record("decline") }
func (f *fakeController) Cancel(context.Context) error  { return f.record("cancel") }
func (f *fakeController) Hangup(context.Context) error  { return f.record("hangup") }
func (f *fakeController) Dismiss(context.Context) error { return f.record("close") }
func (f *fakeController) Snapshot() orch.Snapshot       { return orch.Snapshot{View: orch.ViewIdle} }

func TestReplDispatchesCommands(t *testing.T) {
	f := &fakeController{}
	var out bytes.Buffer
	in := strings.NewReader("call bob conv\naccept\ndecline\ncancel\nhangup\nagain\nclose\nstatus\nbogus\nquit\naccept\n")

	repl(context.Background(), in, &out, f)

	assert.Equal(t, []string{"invite", "accept", "decline", "cancel", "hangup", "again", "close"}, f.calls)
	assert.Equal(t, "conv", f.base)
	assert.Equal(t, domain.UserID("bob"), f.callee.ID)
	assert.Contains(t, out.String(), "calling bob as conv-1")
	assert.Contains(t, out.String(), "[idle]")
	assert.Contains(t, out.String(), `unknown command "bogus"`)
}

func TestReplReportsErrors(t *testing.T) {
	f := &fakeController{err: orch.ErrNoInvitation}
	var out bytes.Buffer
	repl(context.Background(), strings.NewReader("accept\ncall\n"), &out, f)
	assert.Contains(t, out.String(), "error: no ringing invitation")
	assert.Contains(t, out.String(), "usage: call")
}

func TestRender(t *testing.T) {
	s := orch.Snapshot{
		View:        orch.ViewCallFailed,
		CallID:      "conv-1",
		Counterpart: domain.Participant{ID: "bob", DisplayName: "Bob"},
		Err:         errors.New("join failure"),
	}
	assert.Equal(t, "[call_failed] conv-1 with Bob: join failure - again | close", render(s))
}

func TestHTTPBase(t *testing.T) {
	base, err := httpBase("wss://relay.example:8443/api/ws/signal")
	require.NoError(t, err)
	assert.Equal(t, "https://relay.example:8443", base)

	_, err = httpBase("ftp://relay")
	require.Error(t, err)
}

func TestLoopbackPeerAnswers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &config.Config{Call: config.CallConfig{RingTimeout: 15 * time.Second, JoinGrace: 15 * time.Second, MaxParticipants: 2, CleanupTimeout: time.Second}}
	self := domain.Participant{ID: "alice"}

	deps := loopbackDeps(ctx, cfg, self)
	deps.Self = self
	coord := orch.New(cfg.Call, deps)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = coord.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	_, err := coord.Invite(ctx, "demo", domain.Participant{ID: "echo"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return coord.Snapshot().View == orch.ViewInCall }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, coord.Hangup(ctx))
	assert.Equal(t, orch.ViewIdle, coord.Snapshot().View)
}
