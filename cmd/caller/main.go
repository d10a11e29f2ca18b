package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	httpadapter "github.com/dkeye/duet/internal/adapters/http"
	"github.com/dkeye/duet/internal/adapters/memory"
	"github.com/dkeye/duet/internal/adapters/rtc"
	"github.com/dkeye/duet/internal/adapters/wsclient"
	"github.com/dkeye/duet/internal/app"
	"github.com/dkeye/duet/internal/app/orch"
	"github.com/dkeye/duet/internal/config"
	"github.com/dkeye/duet/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, opts, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := setLogLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Msg("keeping the default log level")
	}

	self, err := domain.NewParticipant(domain.UserID(cfg.Client.UserID), cfg.Client.DisplayName, cfg.Client.AvatarRef)
	if err != nil {
		log.Fatal().Err(err).Msg("client.user_id is required (--user)")
	}
	policy, err := app.PolicyByName(cfg.Call.InvitePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invite policy")
	}

	var deps orch.Deps
	if opts.loopback {
		deps = loopbackDeps(ctx, cfg, self)
	} else {
		deps, err = relayDeps(ctx, cfg, self)
		if err != nil {
			log.Fatal().Err(err).Msg("relay client")
		}
	}
	deps.Self = self
	deps.Policy = policy

	coord := orch.New(cfg.Call, deps)
	coord.OnChange(func(s orch.Snapshot) { fmt.Fprintln(os.Stdout, render(s)) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = coord.Run(ctx)
	}()

	fmt.Fprintf(os.Stdout, "signed in as %s (%s); type \"help\" for commands\n", self.Name(), self.ID)
	repl(ctx, os.Stdin, os.Stdout, coord)
	cancel()
	<-done
}

const connectTimeout = 5 * time.Second

type options struct {
	loopback bool
}

// loadConfig parses args into flags bound over the config keys. The client
// logs at warn unless configured otherwise, so the prompt stays readable.
func loadConfig(args []string) (*config.Config, options, error) {
	fs := pflag.NewFlagSet("caller", pflag.ContinueOnError)
	file := fs.String("config", "", "config file (yaml)")
	loopback := fs.Bool("loopback", false, "call an in-process peer that answers every call")
	fs.String("relay", "", "relay websocket url")
	fs.String("token", "", "relay token; self-issued from the shared secret when empty")
	fs.String("user", "", "user id")
	fs.String("name", "", "display name")
	fs.String("avatar", "", "avatar reference")
	fs.String("policy", "", "invite policy while busy: replace or reject")
	fs.String("log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, options{}, err
	}

	v := config.New()
	v.SetDefault("log_level", "warn")
	for key, flag := range map[string]string{
		"client.relay_url":    "relay",
		"client.token":        "token",
		"client.user_id":      "user",
		"client.display_name": "name",
		"client.avatar_ref":   "avatar",
		"call.invite_policy":  "policy",
		"log_level":           "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, options{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	cfg, err := config.LoadFile(v, *file)
	if err != nil {
		return nil, options{}, err
	}
	return cfg, options{loopback: *loopback}, nil
}

// setLogLevel applies level from any config source. An empty level keeps
// the current one.
func setLogLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// relayDeps connects to the relay for signaling and the room API.
func relayDeps(ctx context.Context, cfg *config.Config, self domain.Participant) (orch.Deps, error) {
	token := cfg.Client.Token
	if token == "" {
		var err error
		token, err = httpadapter.IssueToken([]byte(cfg.Secret), self, 24*time.Hour)
		if err != nil {
			return orch.Deps{}, err
		}
		log.Warn().Str("module", "caller").Msg("using a token self-issued from the shared secret")
	}
	base, err := httpBase(cfg.Client.RelayURL)
	if err != nil {
		return orch.Deps{}, err
	}

	sig := wsclient.New(cfg.Client.RelayURL, token)
	sig.OnRelayError(func(code string, id domain.CallID) {
		log.Warn().Str("module", "caller").Str("error", code).Str("call_id", id.String()).Msg("relay did not forward event")
	})
	closed := make(chan error, 1)
	go func() {
		err := sig.Run(ctx)
		if err != nil {
			log.Error().Str("module", "caller").Err(err).Msg("signaling channel closed, restart to reconnect")
		}
		closed <- err
	}()
	select {
	case <-sig.Ready():
	case err := <-closed:
		if err == nil {
			err = ctx.Err()
		}
		return orch.Deps{}, err
	case <-time.After(connectTimeout):
		log.Warn().Str("module", "caller").Dur("after", connectTimeout).Msg("relay not connected yet, calls fail until it is")
	}

	transport := rtc.NewClient(base, token, self.ID)
	return orch.Deps{Signal: sig, Transport: transport, Directory: transport}, nil
}

// httpBase maps ws://host/api/ws/signal to http://host.
func httpBase(relayURL string) (string, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("relay url: unsupported scheme %q", u.Scheme)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host, "/"), nil
}

// loopbackDeps wires the client to an in-process peer "echo" that accepts
// every invitation.
func loopbackDeps(ctx context.Context, cfg *config.Config, self domain.Participant) orch.Deps {
	bus := memory.NewBus()
	network := memory.NewNetwork()

	peer := domain.Participant{ID: "echo", DisplayName: "Echo"}
	echo := orch.New(cfg.Call, orch.Deps{
		Self:      peer,
		Signal:    bus.Channel(peer.ID),
		Transport: network.Transport(peer.ID),
	})
	echo.OnChange(func(s orch.Snapshot) {
		if s.View == orch.ViewIncoming {
			go func() { _ = echo.Accept(ctx) }()
		}
	})
	go func() { _ = echo.Run(ctx) }()
	// returns once the peer's loop runs, so it is subscribed
	_ = echo.Dismiss(ctx)

	return orch.Deps{Signal: bus.Channel(self.ID), Transport: network.Transport(self.ID)}
}
