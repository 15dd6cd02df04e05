// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// app builds the root command. The root action exports playlists, or runs one of the
// housekeeping actions selected by flags.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "spotexport",
		Usage:    "Export Spotify playlists to JSON with expiring local copies",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.configure,
		Action:   r.Root,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Path to the .env credential store (default: nearest .env)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Answer yes to confirmation prompts",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output directory for per-playlist JSON files",
			Value:   "exports",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Export all playlists without prompt",
		},
		&cli.BoolFlag{
			Name:  "pick",
			Usage: "Choose playlists with an interactive checklist",
		},
		&cli.IntFlag{
			Name:  "ttl-days",
			Usage: "Number of days to keep exported files (default from EXPORT_TTL_DAYS, config or 2)",
		},
		&cli.BoolFlag{
			Name:  "plain-files",
			Usage: "Also write plain text files next to the JSON exports",
		},
		&cli.BoolFlag{
			Name:  "no-summary",
			Usage: "Do not write summary.json",
		},
		&cli.BoolFlag{
			Name:  "no-save-refresh",
			Usage: "Do NOT save the refresh token to the .env if received",
		},
		&cli.BoolFlag{
			Name:  "purge",
			Usage: "Purge expired exports in the output directory and exit",
		},
		&cli.BoolFlag{
			Name:  "purge-all",
			Usage: "Force-delete ALL exports in the output directory (confirmation required unless --yes)",
		},
		&cli.StringFlag{
			Name:  "delete-owner",
			Usage: "Delete exports for the given owner_id and exit",
		},
		&cli.BoolFlag{
			Name:  "disconnect",
			Usage: "Remove saved SPOTIFY_REFRESH_TOKEN from .env",
		},
		&cli.BoolFlag{
			Name:  "clear-env",
			Usage: "Clear the .env file (truncate). Use with caution.",
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize in the browser and store the refresh token",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show stored credentials",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Verify the refresh token against the token endpoint",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand writes the config file and migrates the export ledger.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the export ledger",
		Action: r.Setup,
	}
}

// historyCommand lists recorded export runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent export runs and the files still on disk",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show the files written by one export run",
			},
		},
		Action: r.History,
	}
}
