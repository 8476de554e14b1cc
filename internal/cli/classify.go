package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/moodify/internal/mood"
)

func newClassifyCommand(a *app) *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "classify <text...>",
		Short: "Guess the mood of a piece of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("text is empty")
			}

			classifier := newClassifier(cmd.Flags().Changed("seed"), seed)
			candidates := classifier.Classify(text)
			if err := printCandidates(cmd.OutOrStdout(), candidates); err != nil {
				return err
			}
			if candidates[0].Confidence > mood.AutoGenerateThreshold {
				fmt.Fprintf(cmd.OutOrStdout(), "Confident enough to generate a %s playlist.\n", candidates[0].Mood)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the confidence noise, for reproducible output")
	return cmd
}

func newClassifier(seeded bool, seed uint64) *mood.Classifier {
	if !seeded {
		return mood.NewClassifier()
	}
	return mood.NewClassifier(mood.WithJitter(mood.RandomJitter(rand.New(rand.NewPCG(seed, seed)))))
}

func newMoodsCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "moods",
		Short: "List the supported moods and their audio profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printMoods(cmd.OutOrStdout())
		},
	}
}
