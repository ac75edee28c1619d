package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"quizlive-client/internal/api"
	"quizlive-client/internal/config"
	"quizlive-client/internal/domain"
	"quizlive-client/internal/game"
	"quizlive-client/internal/infra/memory"
)

func newGenerateCmd() *cobra.Command {
	var (
		topic      string
		difficulty string
		count      int
		useAI      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question set and save it to the question store",
		Long: `Generate a question set for a topic. Without --topic the available
topics and difficulty levels are listed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, topic, difficulty, count, useAI)
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic to generate questions for")
	cmd.Flags().StringVar(&difficulty, "difficulty", "medium", "difficulty level")
	cmd.Flags().IntVar(&count, "count", 5, "number of questions")
	cmd.Flags().BoolVar(&useAI, "use-ai", false, "use AI generation instead of the stock question bank")
	return cmd
}

func runGenerate(cmd *cobra.Command, topic, difficulty string, count int, useAI bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	client := newAPIClient(cfg)
	catalog := memory.NewCatalogCache(client, config.TTLDuration(cfg.Cache.CatalogTTL, defaultCatalogTTL))

	if topic == "" {
		topics, err := catalog.Topics(ctx)
		if err != nil {
			return err
		}
		levels, err := catalog.DifficultyLevels(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "topics:")
		for _, t := range topics {
			fmt.Fprintf(out, "  %s\n", t)
		}
		fmt.Fprintln(out, "difficulty levels:")
		for _, l := range levels {
			fmt.Fprintf(out, "  %s\n", l)
		}
		return nil
	}

	if err := checkTopic(ctx, catalog, topic); err != nil {
		return err
	}

	uid, _ := identity(cfg)
	questions, err := generateSet(ctx, client, topic, difficulty, count, useAI, uid)
	if err != nil {
		return err
	}

	store := newSetStore(cfg)
	if err := store.Put(ctx, topic, difficulty, questions); err != nil {
		return err
	}

	fmt.Fprintf(out, "saved %d question(s) for topic %q:\n", len(questions), topic)
	for i, q := range questions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, q.Text)
	}
	return nil
}

// generateSet produces, shuffles, and persists a question set. The
// shuffle happens here and only here, before the set is saved or any
// game is created from it; the playing client receives the already
// final option order.
func generateSet(ctx context.Context, client *api.Client, topic, difficulty string, count int, useAI bool, uid string) ([]domain.AuthoredQuestion, error) {
	generated, err := client.GenerateQuestions(ctx, api.GenerateRequest{
		Topic:      topic,
		Difficulty: difficulty,
		Count:      count,
		UseAI:      useAI,
	})
	if err != nil {
		return nil, err
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	questions := make([]domain.AuthoredQuestion, 0, len(generated))
	for _, q := range generated {
		q.Category = topic
		q.Difficulty = difficulty
		q.CreatedBy = uid
		q.CreatedAt = time.Now().UnixMilli()
		shuffled, err := game.ShuffleAuthored(q, rnd)
		if err != nil {
			return nil, fmt.Errorf("shuffle %q: %w", q.Text, err)
		}
		questions = append(questions, shuffled)
	}

	// The set must be persisted before any game broadcasts it.
	if err := client.BulkCreateQuestions(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func checkTopic(ctx context.Context, catalog *memory.CatalogCache, topic string) error {
	topics, err := catalog.Topics(ctx)
	if err != nil {
		return err
	}
	for _, t := range topics {
		if t == topic {
			return nil
		}
	}
	return fmt.Errorf("unknown topic %q, available: %v", topic, topics)
}
