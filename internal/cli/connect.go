package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crossbario/crossbar-shell/internal/auth"
	"github.com/crossbario/crossbar-shell/internal/config"
	"github.com/crossbario/crossbar-shell/internal/log"
	"github.com/crossbario/crossbar-shell/internal/notify"
	"github.com/crossbario/crossbar-shell/internal/profile"
	"github.com/crossbario/crossbar-shell/internal/session"
	"github.com/crossbario/crossbar-shell/internal/wamp"
)

// Dialer creates the session client for a resolved profile.
type Dialer func(kp *config.Keypair, p *profile.Profile, cfg *config.Config, logger *slog.Logger) (session.Client, error)

// DialWAMP creates a WAMP client with the profile's TLS settings and the
// configured call timeout.
func DialWAMP(kp *config.Keypair, p *profile.Profile, cfg *config.Config, logger *slog.Logger) (session.Client, error) {
	caCert := p.CACert
	if caCert != "" {
		expanded, err := config.ExpandHome(caCert)
		if err != nil {
			return nil, err
		}
		caCert = expanded
	}

	tlsConfig, err := wamp.BuildTLSConfig(wamp.TLSOptions{
		SkipVerify: p.TLSSkipVerify,
		CACert:     caCert,
	})
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}

	return wamp.NewClient(kp,
		wamp.WithLogger(log.WithComponent(logger, "wamp")),
		wamp.WithCallTimeout(cfg.CallTimeout),
		wamp.WithTLSConfig(tlsConfig),
	), nil
}

// authenticate resolves the profile, opens a client and runs one
// authentication attempt, reporting the outcome to the user. An interrupt
// while waiting aborts the attempt with exit code 1.
func (cli *CLI) authenticate(ctx context.Context, code string, newCode bool) (*auth.Outcome, error) {
	kp, p, err := cli.Resolver.Resolve(cli.profile)
	if err != nil {
		return nil, err
	}
	logger := log.WithProfile(cli.Logger, p.Name)

	client, err := cli.Dial(kp, p, cli.Config, logger)
	if err != nil {
		return nil, err
	}

	notifier := cli.Notifier
	if notifier == nil {
		notifier = notify.New(cli.Config.Notifications)
	}
	authenticator := auth.New(client,
		auth.WithLogger(log.WithComponent(logger, "auth")),
		auth.WithNotifier(notifier),
	)

	req := auth.Request{
		URL:     p.GetURL(),
		Realm:   p.Realm,
		Profile: p.Name,
		Extras: session.Extras{
			AuthID:                   kp.UserID,
			AuthRole:                 p.Role,
			ActivationCode:           code,
			RequestNewActivationCode: newCode,
		},
	}

	authCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupted := false
	stop := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-cli.Interrupts:
			interrupted = true
			cancel()
		case <-stop:
		}
	}()

	outcome, err := authenticator.Run(authCtx, req)
	close(stop)
	<-watched

	if interrupted {
		if outcome != nil && outcome.Session != nil {
			_ = outcome.Session.Close()
		} else {
			_ = client.Close()
		}
		fmt.Fprintln(cli.Stdout)
		fmt.Fprintln(cli.Stderr, "Authentication aborted.")
		return nil, &ExitError{Code: 1}
	}
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if !outcome.Succeeded() {
		_ = client.Close()
	}

	auth.Report(cli.Stdout, outcome)
	return outcome, nil
}
