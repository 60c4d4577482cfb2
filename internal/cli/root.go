package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskhub/internal/aggregator"
	"taskhub/internal/gateway"
	"taskhub/internal/model"
	"taskhub/internal/notify"
	"taskhub/internal/service/workspace"
	"taskhub/internal/session"
	"taskhub/pkg/circuitbreaker"
	"taskhub/pkg/config"
	"taskhub/pkg/logger"
)

// sessionKey is the single record the CLI keeps in its session file
const sessionKey = "taskhub:cli"

var ErrNotLoggedIn = errors.New("not logged in, run `taskhub login`")

// App carries the flags and collaborators shared by every command
type App struct {
	out io.Writer

	gatewayURL  string
	sessionFile string
	timeout     time.Duration
	fanOut      int
	verbose     bool

	logger *zap.Logger
}

// NewRootCommand builds the taskhub command tree writing to out
func NewRootCommand(out io.Writer) *cobra.Command {
	app := &App{out: out}

	root := &cobra.Command{
		Use:           "taskhub",
		Short:         "taskhub - projects and tasks from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.logger = logger.NewCLILogger(app.verbose)
			if app.sessionFile == "" {
				path, err := session.DefaultFilePath()
				if err != nil {
					return err
				}
				app.sessionFile = path
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.gatewayURL, "gateway", config.GetEnv("TASKHUB_GATEWAY_URL", "http://localhost:5000"), "Gateway base URL")
	flags.StringVar(&app.sessionFile, "session-file", os.Getenv("TASKHUB_SESSION_FILE"), "session file (default ~/.taskhub/session.yaml)")
	flags.DurationVar(&app.timeout, "timeout", 15*time.Second, "timeout of each Gateway call")
	flags.IntVar(&app.fanOut, "fan-out", 8, "maximum concurrent Gateway calls per view")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		app.loginCmd(),
		app.logoutCmd(),
		app.whoamiCmd(),
		app.dashboardCmd(),
		app.tasksCmd(),
		app.projectsCmd(),
		app.boardCmd(),
		app.taskCmd(),
		app.moveCmd(),
		app.commentCmd(),
		app.invitesCmd(),
	)
	return root
}

// Execute runs the CLI against os.Args
func Execute(version string) error {
	root := NewRootCommand(os.Stdout)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *App) client() (*gateway.Client, error) {
	return gateway.New(gateway.Config{
		BaseURL: a.gatewayURL,
		Timeout: a.timeout,
		Breaker: circuitbreaker.Config{},
	}, a.logger)
}

func (a *App) session(client *gateway.Client) *session.Session {
	profile := func(ctx context.Context, token string) (model.User, error) {
		return client.WithToken(token).GetProfile(ctx)
	}
	return session.New(session.NewFileStore(a.sessionFile), sessionKey, 0, profile, a.logger)
}

// authed is the viewer's Gateway client and session, loaded from disk
type authed struct {
	client *gateway.Client
	sess   *session.Session
	user   model.User
}

func (a *App) authed(ctx context.Context) (*authed, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	sess := a.session(client)
	if err := sess.Init(ctx); err != nil {
		if errors.Is(err, session.ErrExpired) {
			return nil, fmt.Errorf("session expired, run `taskhub login`")
		}
		return nil, err
	}
	user, ok := sess.User()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return &authed{client: client.WithToken(sess.Token()), sess: sess, user: user}, nil
}

func (a *App) aggregator(au *authed) *aggregator.Aggregator {
	return aggregator.New(au.client, aggregator.Config{FanOutLimit: a.fanOut}, a.logger)
}

func (a *App) workspace(au *authed) *workspace.Service {
	return workspace.New(au.client, au.user, workspace.Deps{
		Notifier: &printNotifier{out: a.out},
		Logger:   a.logger,
	})
}

// printNotifier shows success notifications on stdout; failures are
// reported through the command error instead
type printNotifier struct {
	out io.Writer
}

func (p *printNotifier) Notify(_ context.Context, n model.Notification) {
	if n.Level == model.LevelSuccess {
		fmt.Fprintln(p.out, n.Title)
	}
}

var _ notify.Notifier = (*printNotifier)(nil)
