package media

import (
	"context"
	"fmt"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
	"go.uber.org/multierr"
)

const (
	StepLeaveHandle = "leave_handle"
	StepLeaveFresh  = "leave_fresh"
	StepDisconnect  = "disconnect"
	StepStopTracks  = "stop_tracks"
	StepClear       = "clear"
)

type StepResult struct {
	Name    string
	Skipped bool
	Err     error
}

// CleanupReport describes one run of the cascade. Err aggregates every
// failed step; it is informational only.
type CleanupReport struct {
	Steps           []StepResult
	Err             error
	RemainingTracks int
}

// Cleanup releases the room and every local track. Each step is attempted
// even if an earlier one failed or panicked. The cascade runs once; later
// calls return the first report.
func (s *Session) Cleanup(ctx context.Context) CleanupReport {
	s.mu.Lock()
	if s.report != nil {
		r := *s.report
		s.mu.Unlock()
		return r
	}
	s.closed = true
	held := s.handle
	s.mu.Unlock()

	var (
		report CleanupReport
		fresh  core.RoomHandle
	)
	run := func(name string, skip bool, fn func() error) {
		res := s.step(name, skip, fn)
		report.Steps = append(report.Steps, res)
		report.Err = multierr.Append(report.Err, res.Err)
	}

	run(StepLeaveHandle, held == nil, func() error {
		return s.transport.LeaveRoom(ctx, held)
	})
	run(StepLeaveFresh, held != nil, func() error {
		fresh = s.transport.NewHandle(s.id)
		return s.transport.LeaveRoom(ctx, fresh)
	})
	run(StepDisconnect, false, func() error {
		return s.transport.DisconnectClient(ctx)
	})

	var tracks []core.MediaTrack
	run(StepStopTracks, false, func() error {
		for _, h := range []core.RoomHandle{held, fresh} {
			if h != nil {
				tracks = append(tracks, h.LocalTracks()...)
			}
		}
		tracks = append(tracks, s.transport.LocalMediaTracks()...)
		return stopTracks(tracks)
	})
	run(StepClear, false, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.handle = nil
		s.participants = nil
		if s.state != domain.RoomFailed {
			s.state = domain.RoomEnded
		}
		return nil
	})

	report.RemainingTracks = core.ActiveTracks(tracks)
	if report.RemainingTracks > 0 {
		s.log.Error().Int("tracks", report.RemainingTracks).Msg("local tracks still active after cleanup")
	}
	s.log.Info().Err(report.Err).Msg("cleanup finished")

	s.mu.Lock()
	s.report = &report
	s.mu.Unlock()
	return report
}

func (s *Session) step(name string, skip bool, fn func() error) (res StepResult) {
	res.Name = name
	if skip {
		res.Skipped = true
		s.metrics.CleanupSteps.WithLabelValues(name, "skipped").Inc()
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%s: panic: %v", name, r)
			s.metrics.CleanupSteps.WithLabelValues(name, "panic").Inc()
			s.log.Error().Str("step", name).Interface("panic", r).Msg("cleanup step panicked")
		}
	}()
	if err := fn(); err != nil {
		res.Err = fmt.Errorf("%s: %w", name, err)
		s.metrics.CleanupSteps.WithLabelValues(name, "error").Inc()
		s.log.Warn().Str("step", name).Err(err).Msg("cleanup step failed")
		return res
	}
	s.metrics.CleanupSteps.WithLabelValues(name, "ok").Inc()
	return res
}

// stopTracks stops every active track. A panicking Stop does not prevent
// the rest from being stopped.
func stopTracks(tracks []core.MediaTrack) (err error) {
	for _, t := range tracks {
		if t == nil || !t.Active() {
			continue
		}
		err = multierr.Append(err, stopOne(t))
	}
	return err
}

func stopOne(t core.MediaTrack) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stop track %s: panic: %v", t.ID(), r)
		}
	}()
	if err := t.Stop(); err != nil {
		return fmt.Errorf("stop track %s: %w", t.ID(), err)
	}
	return nil
}
