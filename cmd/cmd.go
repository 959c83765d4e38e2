// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes a starter config and initializes the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml (if missing) and initialize the database",
		Action: r.Setup,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reset-history", Usage: "Drop all recorded ingest runs (stored credentials are kept)"},
		},
	}
}

// authCommand handles the authorization-code flow and the stored credential
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Print the authorization URL",
				Action: r.AuthURL,
			},
			{
				Name:  "callback",
				Usage: "Complete authorization from the redirect URL delivered to the app",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Action: r.AuthCallback,
			},
			{
				Name:  "login",
				Usage: "Open the browser and complete authorization on a loopback redirect",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the redirect",
						Value: defaultLoginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored credential state",
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Refresh the access token now",
				Action: r.AuthRefresh,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored credential",
				Action: r.AuthLogout,
			},
		},
	}
}

// meCommand shows the current user's profile.
func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "me",
		Usage: "Show your profile, top artists and top tracks",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "artists",
				Usage: "Number of top artists",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  "tracks",
				Usage: "Number of top tracks",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "avatar",
				Usage: "Save the profile image to this path",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Me,
	}
}

// searchCommand runs a single catalog search.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for a track and print the first match",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Action: r.Search,
	}
}

// addCommand appends one track URI.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a track URI to the managed playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "uri"},
		},
		Action: r.Add,
	}
}

// ingestCommand pushes recognized texts through search and append.
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Search each text and add matches to the managed playlist",
		ArgsUsage: "[TEXT...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read one text per line from a file (- for stdin)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show an interactive progress view",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record this run",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run result as JSON",
			},
		},
		Action: r.Ingest,
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Ingest each text file dropped into a directory as one recognized text",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "dir"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "ext",
						Usage: "File extension to pick up",
						Value: ".txt",
					},
					&cli.DurationFlag{
						Name:  "settle",
						Usage: "Quiet period after the last write before a file is read",
						Value: defaultSettle,
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record runs",
					},
				},
				Action: r.IngestWatch,
			},
		},
	}
}

// historyCommand lists and renders recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded ingest runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only list runs with this status (running, completed, failed)",
			},
		},
		Action: r.HistoryList,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Render one run as a report",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format (txt, md, csv, json)",
						Value: "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a run from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}
