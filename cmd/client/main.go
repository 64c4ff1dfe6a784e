// Command client is the terminal front end of the Genome Collaboration
// Portal.
package main

import (
	"cmp"
	"context"
	"crypto/cipher"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/GenomePortal/internal/client/api"
	"github.com/atinyakov/GenomePortal/internal/client/cli"
	"github.com/atinyakov/GenomePortal/internal/client/display"
	"github.com/atinyakov/GenomePortal/internal/client/router"
	"github.com/atinyakov/GenomePortal/internal/client/session"
	"github.com/atinyakov/GenomePortal/internal/client/storage"
	"github.com/atinyakov/GenomePortal/internal/config"
	"github.com/atinyakov/GenomePortal/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

const requestTimeout = 15 * time.Second

// flags are the command-line overrides of the client configuration.
type flags struct {
	configFile string
	apiURL     string
	stateFile  string
	caFile     string
	logLevel   string
	logFile    string
}

// portal is the wired client.
type portal struct {
	log     *zap.Logger
	manager *session.Manager
	app     *cli.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Genome Collaboration Portal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "portal.json", "path to config file")
	pf.StringVar(&f.apiURL, "api", "", "API base URL")
	pf.StringVar(&f.stateFile, "state-file", "", "file holding the session token")
	pf.StringVar(&f.caFile, "ca", "", "CA certificate trusted for HTTPS")
	pf.StringVar(&f.logLevel, "log-level", "", "log level")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShell(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "login [email]",
			Short: "Sign in and keep the session for later runs",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := setup(cmd, f)
				if err != nil {
					return err
				}
				defer p.log.Sync()
				return p.app.Login(cmd.Context(), args)
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "End the stored session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := setup(cmd, f)
				if err != nil {
					return err
				}
				defer p.log.Sync()
				p.manager.Logout(cmd.Context())
				p.manager.Drain()
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show API health and the stored session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := setup(cmd, f)
				if err != nil {
					return err
				}
				defer p.log.Sync()
				// a rejected token is reported by Status as a guest session
				_ = p.manager.RestoreSession(cmd.Context())
				return p.app.Status(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show build version and date",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Genome Collaboration Portal client\nVersion: %s\nBuild Date: %s\n",
					cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
			},
		},
	)
	return root
}

func runShell(cmd *cobra.Command, f *flags) error {
	p, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer p.log.Sync()

	ctx := cmd.Context()
	restored := p.manager.RestoreAsync(ctx)
	go func() {
		if err := <-restored; err != nil {
			p.log.Info("session not restored", zap.Error(err))
		}
	}()
	p.app.Run(ctx)
	p.manager.Drain()
	return nil
}

// loadOptions layers the config file, environment and changed flags.
func loadOptions(cmd *cobra.Command, f *flags) (*config.ClientOptions, error) {
	opts, err := config.ParseClient(f.configFile)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("api") {
		opts.APIURL = f.apiURL
	}
	if changed("state-file") {
		opts.StateFile = f.stateFile
	}
	if changed("ca") {
		opts.CAFile = f.caFile
	}
	if changed("log-level") {
		opts.LogLevel = f.logLevel
	}
	if changed("log-file") {
		opts.LogFile = f.logFile
	}
	return opts, nil
}

func setup(cmd *cobra.Command, f *flags) (*portal, error) {
	opts, err := loadOptions(cmd, f)
	if err != nil {
		return nil, err
	}

	log := logger.New()
	var paths []string
	if opts.LogFile != "" {
		paths = []string{opts.LogFile}
	}
	if err := log.InitTo(opts.LogLevel, paths); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	zapLogger := log.Log

	aead, err := stateCipher(opts.StateKey)
	if err != nil {
		return nil, err
	}
	store := storage.New(opts.StateFile, aead)
	if err := store.Load(); err != nil {
		zapLogger.Warn("ignoring unreadable state file", zap.String("path", store.Path()), zap.Error(err))
	}

	httpClient, err := api.NewHTTPClient(opts.CAFile, requestTimeout)
	if err != nil {
		return nil, err
	}
	client := api.New(opts.APIURL, httpClient, zapLogger)

	out := cmd.OutOrStdout()
	term := display.NewTerminal(out, router.Titles(), 0)
	state := &session.State{}
	manager := session.NewManager(state, client, store, term, nil, zapLogger)
	r := router.New(term, state, client, zapLogger)
	manager.SetNavigator(r)

	app := cli.NewApp(cli.Deps{
		Sessions: manager,
		State:    state,
		Router:   r,
		API:      client,
		Display:  term,
		In:       cmd.InOrStdin(),
		Out:      out,
		Log:      zapLogger,
	})
	return &portal{log: zapLogger, manager: manager, app: app}, nil
}

func stateCipher(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, nil
	}
	return storage.NewAEAD([]byte(key))
}
