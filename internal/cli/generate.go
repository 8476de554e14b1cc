package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/justestif/moodify/internal/auth"
	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
)

type generateOptions struct {
	mood    string
	text    string
	artists []string
	genres  []string
	save    bool
	token   string
	timeout time.Duration
}

func newGenerateCommand(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a mood playlist from the Spotify catalog",
		Long: `Builds a playlist for a mood, given directly with --mood or guessed
from --text. Without --token the Spotify consent page is opened through a
local callback server. With --save the playlist is created in the signed-in
account.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.generate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.mood, "mood", "", "mood to build the playlist for")
	flags.StringVar(&opts.text, "text", "", "free text to guess the mood from")
	flags.StringSliceVar(&opts.artists, "artist", nil, "favorite artist (repeatable)")
	flags.StringSliceVar(&opts.genres, "genre", nil, "favorite genre (repeatable)")
	flags.BoolVar(&opts.save, "save", false, "save the playlist to the Spotify account")
	flags.StringVar(&opts.token, "token", "", "Spotify access token; skips the browser login")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "overall time limit, excluding login")
	cmd.MarkFlagsMutuallyExclusive("mood", "text")
	cmd.MarkFlagsOneRequired("mood", "text")
	return cmd
}

// resolveMood picks the mood from an explicit label or the top classifier
// candidate for text.
func resolveMood(out io.Writer, opts generateOptions) (mood.Mood, error) {
	if opts.mood != "" {
		return mood.Parse(opts.mood)
	}
	if strings.TrimSpace(opts.text) == "" {
		return "", errors.New("text is empty")
	}

	candidates := mood.NewClassifier().Classify(opts.text)
	if err := printCandidates(out, candidates); err != nil {
		return "", err
	}
	return candidates[0].Mood, nil
}

func (a *app) generate(ctx context.Context, out io.Writer, opts generateOptions) error {
	m, err := resolveMood(out, opts)
	if err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}
	authenticator, err := a.authenticator(auth.WithOutput(out))
	if err != nil {
		return err
	}

	var token *oauth2.Token
	if opts.token != "" {
		token = &oauth2.Token{AccessToken: opts.token, TokenType: "Bearer"}
	} else if token, err = authenticator.Interactive(ctx); err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	catalog := a.catalog(authenticator.Client(ctx, token))
	prefs := playlist.Preferences{FavoriteArtists: opts.artists, FavoriteGenres: opts.genres}
	prefs.Normalize()

	tracks, err := playlist.NewAggregator(catalog, a.aggregatorOptions()...).BuildCandidateTracks(ctx, m, &prefs)
	if err != nil {
		return err
	}

	assembler := playlist.NewAssembler(playlist.WithAssemblerLogger(a.logger))
	draft := assembler.Assemble(m, tracks)
	if err := printDraft(out, draft); err != nil {
		return err
	}
	if !opts.save {
		return nil
	}

	userID, err := catalog.UserID(ctx)
	if err != nil {
		return err
	}
	saved, err := assembler.Persist(ctx, draft, userID, catalog)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved %d tracks to %s\n", saved.TrackCount, saved.URL)
	return nil
}
