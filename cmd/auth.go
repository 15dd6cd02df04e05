package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotexport/internal/shared"
)

// AuthLogin runs the browser authorization flow and stores the refresh token.
//
// It always re-authorizes, even when a refresh token is already stored.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.credentials()
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w (define %s and %s in %s or the environment)",
			err, shared.EnvClientID, shared.EnvClientSecret, r.env.Path())
	}

	r.logger.Info("starting authorization", "redirect_uri", creds.RedirectURI)

	tok, err := r.authenticator().AuthorizationCode(ctx, creds)
	if err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		return fmt.Errorf("%w: authorization succeeded without a refresh token", shared.ErrNoRefreshToken)
	}

	if err := r.saveRefreshToken(cmd, tok.RefreshToken); err != nil {
		return err
	}
	return r.writePlain("✓ Authorization complete (scope: %s)\n", tok.Scope)
}

// AuthStatus prints the stored credentials with secrets masked.
//
// With --check the refresh token is exchanged once; a rotated token is saved.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.credentials()

	r.writePlainHeader("Spotify credentials")
	r.writePlain("Store:         %s\n", r.env.Path())
	r.writePlain("Client ID:     %s\n", shared.MaskSecret(creds.ClientID))
	r.writePlain("Client secret: %s\n", shared.MaskSecret(creds.ClientSecret))
	r.writePlain("Redirect URI:  %s\n", creds.RedirectURI)
	r.writePlain("Refresh token: %s\n", shared.MaskSecret(creds.RefreshToken))

	if !cmd.Bool("check") {
		return nil
	}

	if creds.RefreshToken == "" {
		return fmt.Errorf("%w: run 'spotexport auth login' first", shared.ErrNoRefreshToken)
	}

	tok, err := r.authenticator().Refresh(ctx, creds)
	if err != nil {
		return err
	}
	if err := r.saveRefreshToken(cmd, tok.RefreshToken); err != nil {
		return err
	}
	return r.writePlainln("✓ Refresh token is valid (access token expires in %ds)", tok.ExpiresIn)
}
