package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/repositories"
	"github.com/desertthunder/spotexport/internal/services"
	"github.com/desertthunder/spotexport/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	env        *shared.EnvStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	auth       services.Authenticator
	catalog    services.Catalog
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Auth and Catalog replace the Spotify clients built from the configuration.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Auth       services.Authenticator
	Catalog    services.Catalog
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		auth:       opts.Auth,
		catalog:    opts.Catalog,
		now:        opts.Now,
	}
}

// configure loads the config file and resolves the credential store once, before any action runs.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	switch {
	case cmd.IsSet("config"):
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	case r.config == nil:
		r.config = shared.DefaultConfig()
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	explicit := cmd.String("env")
	if explicit == "" {
		explicit = r.config.Env.Path
	}
	r.env = shared.NewEnvStore(shared.ResolveEnvPath(explicit, shared.MustGetwd()))
	if err := r.env.Ensure(); err != nil {
		return ctx, err
	}
	r.logger.Debug("resolved credential store", "path", r.env.Path())

	return ctx, nil
}

// Root dispatches the housekeeping flags in a fixed order and falls back to exporting.
func (r *Runner) Root(ctx context.Context, cmd *cli.Command) error {
	switch {
	case cmd.Bool("purge"):
		return r.Purge(ctx, cmd)
	case cmd.String("delete-owner") != "":
		return r.DeleteOwner(ctx, cmd)
	case cmd.Bool("purge-all"):
		return r.PurgeAll(ctx, cmd)
	case cmd.Bool("disconnect"):
		return r.Disconnect(ctx, cmd)
	case cmd.Bool("clear-env"):
		return r.ClearEnv(ctx, cmd)
	default:
		return r.Export(ctx, cmd)
	}
}

// credentials reads the client registration and refresh token from the credential store.
func (r *Runner) credentials() models.Credentials {
	creds := models.Credentials{
		ClientID:     r.env.Lookup(shared.EnvClientID),
		ClientSecret: r.env.Lookup(shared.EnvClientSecret),
		RedirectURI:  r.env.Lookup(shared.EnvRedirectURI),
		RefreshToken: r.env.Lookup(shared.EnvRefreshToken),
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = r.config.Auth.RedirectURI
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = services.DefaultRedirectURI
	}
	return creds
}

func (r *Runner) authenticator() services.Authenticator {
	if r.auth != nil {
		return r.auth
	}
	return services.NewOAuthFlow(
		services.WithEndpoints(r.config.Auth.AuthURL, r.config.Auth.TokenURL),
		services.WithHTTPClient(r.httpClient),
		services.WithAuthTimeout(r.config.Auth.AuthTimeout()),
		services.WithOutput(r.output),
		services.WithOAuthLogger(shared.WithLogger(r.logger, "component", "oauth")),
	)
}

func (r *Runner) spotifyCatalog() services.Catalog {
	if r.catalog != nil {
		return r.catalog
	}
	client := &http.Client{
		Transport: r.httpClient.Transport,
		Timeout:   r.config.API.RequestTimeout(),
	}
	fetcher := services.NewFetcher(client,
		services.WithRateLimit(r.config.API.RequestsPerSecond),
		services.WithLogger(shared.WithLogger(r.logger, "component", "fetcher")),
	)
	return services.NewSpotifyClient(fetcher, r.config.API.BaseURL)
}

// openLedger opens the export ledger. A missing database path yields a nil ledger.
func (r *Runner) openLedger() (*repositories.Ledger, func(), error) {
	if r.config.Database.Path == "" {
		return nil, func() {}, nil
	}
	db, err := shared.OpenLedger(r.config.Database)
	if err != nil {
		return nil, func() {}, err
	}
	return repositories.NewLedger(db), func() { db.Close() }, nil
}

// optionalLedger is [Runner.openLedger] for commands where the ledger is best effort.
func (r *Runner) optionalLedger() (*repositories.Ledger, func()) {
	ledger, closeFn, err := r.openLedger()
	if err != nil {
		r.logger.Warn("export ledger unavailable, continuing without it", "path", r.config.Database.Path, "error", err)
		return nil, func() {}
	}
	return ledger, closeFn
}

// confirm asks a [y/N] question unless --yes was given. End of input counts as no.
func (r *Runner) confirm(cmd *cli.Command, message string) bool {
	if cmd.Bool("yes") {
		return true
	}
	r.writePlain("%s [y/N]: ", message)

	line, err := r.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// outDir picks the export directory: flag, then config, then "exports".
func (r *Runner) outDir(cmd *cli.Command) string {
	if cmd.IsSet("out") {
		return cmd.String("out")
	}
	if r.config.Export.OutDir != "" {
		return r.config.Export.OutDir
	}
	return cmd.String("out")
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
