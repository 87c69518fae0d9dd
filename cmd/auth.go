package main

import (
	"context"

	"github.com/desertthunder/soundexplorer/internal/services"
	"github.com/desertthunder/soundexplorer/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthURL prints the authorization URL built from the configured client, for checking the app
// registration and redirect URI. The state is random and not checked by anything.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	authenticator, err := services.NewAuthenticator(config.Spotify, r.httpClient)
	if err != nil {
		return err
	}

	url := authenticator.AuthorizeURL(shared.GenerateID())

	r.writePlainHeader("Spotify authorization")
	r.writePlain("%s %s\n", labelStyle.Render("Redirect URI:"), config.Spotify.RedirectURI)
	r.writePlain("%s %s\n", labelStyle.Render("Scopes:"), config.Spotify.Scope)
	r.writePlain("%s\n", url)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}
	return nil
}
