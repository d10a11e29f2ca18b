package media_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/duet/internal/adapters/memory"
	"github.com/dkeye/duet/internal/app/media"
	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/core/mocks"
	"github.com/dkeye/duet/internal/domain"
	"github.com/dkeye/duet/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const callID domain.CallID = "conv-42-1000"

var cfg = media.Config{MaxParticipants: 2, JoinGrace: 15 * time.Second}

func TestJoinCreatesRoomThenSecondPartyJoins(t *testing.T) {
	ctx := context.Background()
	n := memory.NewNetwork()

	a := media.New(callID, "alice", n.Transport("alice"), cfg, nil, nil)
	require.NoError(t, a.Join(ctx))
	assert.Equal(t, domain.RoomActive, a.State())

	info, ok := n.Room(callID)
	require.True(t, ok)
	assert.Equal(t, 2, info.MaxParticipants)

	b := media.New(callID, "bob", n.Transport("bob"), cfg, nil, nil)
	require.NoError(t, b.Join(ctx))

	snap := a.Snapshot()
	assert.Equal(t, 2, snap.ParticipantCount)
	assert.Equal(t, domain.UserID("bob"), snap.Remote)
	assert.Equal(t, 2, snap.ActiveTracks)
}

func TestJoinCallFullLeavesRoomUnchanged(t *testing.T) {
	n := memory.NewNetwork()
	n.Seed(callID, "alice", "bob")

	s := media.New(callID, "carol", n.Transport("carol"), cfg, clock.NewMock(), nil)
	err := s.Join(context.Background())
	assert.ErrorIs(t, err, domain.ErrCallFull)
	assert.Equal(t, domain.RoomFailed, s.State())
	// fatal errors skip the grace window
	assert.ErrorIs(t, s.VisibleError(), domain.ErrCallFull)

	info, _ := n.Room(callID)
	assert.ElementsMatch(t, []domain.UserID{"alice", "bob"}, info.Participants)
}

func TestJoinAlreadyListedSkipsJoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockMediaTransport(ctrl)
	tr.EXPECT().GetRoom(gomock.Any(), callID).Return(domain.RoomInfo{
		CallID: callID, MaxParticipants: 2, Participants: []domain.UserID{"alice", "bob"},
	}, nil)
	tr.EXPECT().LocalMediaTracks().Return(nil).AnyTimes()

	s := media.New(callID, "alice", tr, cfg, nil, nil)
	require.NoError(t, s.Join(context.Background()))
	assert.Equal(t, domain.RoomActive, s.State())
	assert.Equal(t, 2, s.Snapshot().ParticipantCount)
}

func TestJoinLostCreateRaceFallsThroughToJoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockMediaTransport(ctrl)
	h := mocks.NewMockRoomHandle(ctrl)

	gomock.InOrder(
		tr.EXPECT().GetRoom(gomock.Any(), callID).Return(domain.RoomInfo{}, domain.ErrRoomNotFound),
		tr.EXPECT().CreateRoom(gomock.Any(), callID, 2).Return(domain.RoomInfo{}, domain.ErrRoomExists),
		tr.EXPECT().JoinRoom(gomock.Any(), callID).Return(h, nil),
	)
	h.EXPECT().Participants().Return([]domain.UserID{"bob", "alice"}).AnyTimes()

	s := media.New(callID, "alice", tr, cfg, nil, nil)
	require.NoError(t, s.Join(context.Background()))
	assert.Equal(t, domain.RoomActive, s.State())
}

func TestJoinFailureHiddenDuringGrace(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockMediaTransport(ctrl)
	boom := errors.New("dial tcp: timeout")
	// one attempt only, no retry
	tr.EXPECT().GetRoom(gomock.Any(), callID).Return(domain.RoomInfo{}, boom).Times(1)

	clk := clock.NewMock()
	s := media.New(callID, "alice", tr, cfg, clk, nil)
	err := s.Join(context.Background())
	assert.ErrorIs(t, err, domain.ErrJoinFailure)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.RoomFailed, s.State())

	assert.NoError(t, s.VisibleError())
	assert.Equal(t, 15*time.Second, s.GraceRemaining())

	clk.Add(10 * time.Second)
	assert.NoError(t, s.VisibleError())

	clk.Add(5 * time.Second)
	assert.ErrorIs(t, s.VisibleError(), domain.ErrJoinFailure)
	assert.Zero(t, s.GraceRemaining())

	// a second Join is a no-op
	require.NoError(t, s.Join(context.Background()))
}

func TestCleanupAfterJoin(t *testing.T) {
	ctx := context.Background()
	n := memory.NewNetwork()
	tr := n.Transport("alice")
	reg := prometheus.NewRegistry()
	m := metrics.NewCalls(reg)

	s := media.New(callID, "alice", tr, cfg, nil, m)
	require.NoError(t, s.Join(ctx))
	require.Equal(t, 2, tr.ActiveTracks())

	report := s.Cleanup(ctx)
	assert.NoError(t, report.Err)
	assert.Zero(t, report.RemainingTracks)
	assert.Zero(t, tr.ActiveTracks())
	assert.Equal(t, domain.RoomEnded, s.State())
	_, ok := n.Room(callID)
	assert.False(t, ok)

	require.Len(t, report.Steps, 5)
	assert.False(t, report.Steps[0].Skipped)
	assert.True(t, report.Steps[1].Skipped)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CleanupSteps.WithLabelValues(media.StepLeaveHandle, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JoinResults.WithLabelValues("joined")))
}

func TestCleanupStopsTracksWhenEarlierStepsFail(t *testing.T) {
	ctx := context.Background()
	n := memory.NewNetwork()
	tr := n.Transport("alice")

	s := media.New(callID, "alice", tr, cfg, nil, nil)
	require.NoError(t, s.Join(ctx))

	tr.Fail(memory.OpLeaveRoom, errors.New("leave refused"))
	tr.Panic(memory.OpDisconnect)

	report := s.Cleanup(ctx)
	assert.Error(t, report.Err)
	assert.Zero(t, report.RemainingTracks)
	assert.Zero(t, tr.ActiveTracks())
	assert.Equal(t, domain.RoomEnded, s.State())
	assert.Zero(t, s.Snapshot().ActiveTracks)
}

func TestCleanupWithoutHandleUsesFreshHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockMediaTransport(ctrl)
	fresh := mocks.NewMockRoomHandle(ctrl)
	track := mocks.NewMockMediaTrack(ctrl)

	boom := errors.New("network down")
	active := true
	track.EXPECT().Active().DoAndReturn(func() bool { return active }).AnyTimes()
	track.EXPECT().ID().Return("cam").AnyTimes()
	track.EXPECT().Stop().DoAndReturn(func() error {
		active = false
		return errors.New("device busy")
	})

	tr.EXPECT().GetRoom(gomock.Any(), callID).Return(domain.RoomInfo{}, boom)
	tr.EXPECT().NewHandle(callID).Return(fresh)
	tr.EXPECT().LeaveRoom(gomock.Any(), fresh).Return(boom)
	tr.EXPECT().DisconnectClient(gomock.Any()).DoAndReturn(func(context.Context) error { panic("sdk crashed") })
	tr.EXPECT().LocalMediaTracks().Return([]core.MediaTrack{track}).AnyTimes()
	fresh.EXPECT().LocalTracks().Return(nil)

	s := media.New(callID, "alice", tr, cfg, nil, nil)
	require.ErrorIs(t, s.Join(context.Background()), domain.ErrJoinFailure)

	report := s.Cleanup(context.Background())
	assert.True(t, report.Steps[0].Skipped)
	assert.Error(t, report.Steps[1].Err)
	assert.Error(t, report.Steps[2].Err)
	assert.Error(t, report.Steps[3].Err)
	assert.Zero(t, report.RemainingTracks)
	assert.False(t, active)
	// failed sessions stay failed
	assert.Equal(t, domain.RoomFailed, s.State())

	// runs once
	again := s.Cleanup(context.Background())
	assert.Equal(t, report, again)
}

func TestJoinCompletingAfterCleanupReleasesRoom(t *testing.T) {
	ctx := context.Background()
	n := memory.NewNetwork()
	tr := n.Transport("alice")
	release := tr.HoldJoins()

	s := media.New(callID, "alice", tr, cfg, nil, nil)
	done := make(chan error, 1)
	go func() { done <- s.Join(ctx) }()

	s.Cleanup(ctx)
	release()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, media.ErrSessionClosed)
	case <-time.After(time.Second):
		t.Fatal("join did not return")
	}
	_, ok := n.Room(callID)
	assert.False(t, ok)
	assert.Zero(t, tr.ActiveTracks())
	assert.Empty(t, tr.LocalMediaTracks(), "the late capture is not left with the client")
	assert.Equal(t, domain.RoomEnded, s.State())
}
