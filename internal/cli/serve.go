package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/justestif/moodify/internal/auth"
	"github.com/justestif/moodify/internal/config"
	"github.com/justestif/moodify/internal/db"
	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
	"github.com/justestif/moodify/internal/spotify"
	"github.com/justestif/moodify/internal/web"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the Moodify HTTP API until interrupted.

Sessions are kept in memory unless a database URL is configured, in which
case users, sessions, preferences, mood history and saved playlists are
stored in PostgreSQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	a.bind(cmd.Flags(), map[string]string{
		"addr":         config.KeyAddr,
		"database-url": config.KeyDatabaseURL,
	})
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	authenticator, err := a.authenticator()
	if err != nil {
		return err
	}

	var sessions web.SessionManager
	if a.cfg.DatabaseURL != "" {
		database, err := db.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.CreateSchema(ctx); err != nil {
			return err
		}
		sessions = web.NewDBSessionStore(database, a.logger)
		a.logger.Info("storing sessions in PostgreSQL")
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:     a.cfg.Addr,
		Auth:     authenticator,
		Sessions: sessions,
		Catalogs: func(token *oauth2.Token) web.Catalog {
			// Session catalogs outlive the request that builds them.
			return a.catalog(authenticator.Client(context.Background(), token))
		},
		Classifier:        mood.NewClassifier(),
		Assembler:         playlist.NewAssembler(playlist.WithAssemblerLogger(a.logger)),
		AggregatorOptions: a.aggregatorOptions(),
		Logger:            a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

func (a *app) authenticator(opts ...auth.Option) (*auth.Authenticator, error) {
	return auth.New(auth.Config{
		ClientID:     a.cfg.SpotifyID,
		ClientSecret: a.cfg.SpotifySecret,
		RedirectURL:  a.cfg.RedirectURI,
	}, opts...)
}

func (a *app) catalog(httpClient *http.Client) *spotify.Client {
	return spotify.New(httpClient,
		spotify.WithRequestsPerSecond(a.cfg.RequestsPerSecond),
		spotify.WithReadAttempts(a.cfg.ReadAttempts),
	)
}

func (a *app) aggregatorOptions() []playlist.Option {
	return []playlist.Option{
		playlist.WithConcurrency(a.cfg.Concurrency),
		playlist.WithMarket(a.cfg.Market),
		playlist.WithLogger(a.logger),
	}
}
