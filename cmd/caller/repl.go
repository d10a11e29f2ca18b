package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dkeye/duet/internal/app/orch"
	"github.com/dkeye/duet/internal/domain"
)

const help = `commands:
  call <user> [base]  ring user; base names the conversation
  accept | decline    answer the ringing call
  cancel              stop ringing
  hangup              end the call
  again               call the last counterpart again
  close               dismiss the ended call
  status              show the current state
  quit`

// Controller is the part of the coordinator the prompt drives.
type Controller interface {
	Invite(ctx context.Context, base string, callee domain.Participant) (domain.CallID, error)
	CallAgain(ctx context.Context) (domain.CallID, error)
	Accept(ctx context.Context) error
	Decline(ctx context.Context) error
	Cancel(ctx context.Context) error
	Hangup(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Snapshot() orch.Snapshot
}

func repl(ctx context.Context, in io.Reader, out io.Writer, c Controller) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := exec(ctx, out, c, strings.Fields(line)); quit {
				return
			}
		}
	}
}

func exec(ctx context.Context, out io.Writer, c Controller, args []string) bool {
	if len(args) == 0 {
		return false
	}
	var err error
	switch args[0] {
	case "call":
		if len(args) < 2 {
			fmt.Fprintln(out, "usage: call <user> [base]")
			return false
		}
		base := "call"
		if len(args) > 2 {
			base = args[2]
		}
		var id domain.CallID
		if id, err = c.Invite(ctx, base, domain.Participant{ID: domain.UserID(args[1])}); err == nil {
			fmt.Fprintln(out, "calling", args[1], "as", id)
		}
	case "again":
		var id domain.CallID
		if id, err = c.CallAgain(ctx); err == nil {
			fmt.Fprintln(out, "calling again as", id)
		}
	case "accept":
		err = c.Accept(ctx)
	case "decline":
		err = c.Decline(ctx)
	case "cancel":
		err = c.Cancel(ctx)
	case "hangup":
		err = c.Hangup(ctx)
	case "close":
		err = c.Dismiss(ctx)
	case "status":
		fmt.Fprintln(out, render(c.Snapshot()))
	case "help":
		fmt.Fprintln(out, help)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(out, "unknown command %q\n", args[0])
	}
	if err != nil {
		fmt.Fprintln(out, "error:", err)
	}
	return false
}

func render(s orch.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", s.View)
	if s.CallID != "" {
		fmt.Fprintf(&b, " %s", s.CallID)
	}
	if s.Counterpart.ID != "" {
		fmt.Fprintf(&b, " with %s", s.Counterpart.Name())
	}
	switch s.View {
	case orch.ViewOutgoing, orch.ViewIncoming:
		if !s.Deadline.IsZero() {
			fmt.Fprintf(&b, " (%s left)", time.Until(s.Deadline).Round(time.Second))
		}
	case orch.ViewInCall:
		if s.Media != nil {
			fmt.Fprintf(&b, " participants=%d tracks=%d", s.Media.ParticipantCount, s.Media.ActiveTracks)
		}
	case orch.ViewDeclined, orch.ViewNoResponse, orch.ViewCallEnded:
		b.WriteString(" - again | close")
	case orch.ViewCallFailed:
		if s.Err != nil {
			fmt.Fprintf(&b, ": %v", s.Err)
		}
		b.WriteString(" - again | close")
	}
	return b.String()
}
