package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quizlive-client/internal/config"
	"quizlive-client/internal/domain"
	"quizlive-client/internal/game"
	"quizlive-client/internal/infra/memory"
	"quizlive-client/internal/transport/socket"
)

func newHostCmd() *cobra.Command {
	var (
		topic      string
		difficulty string
		count      int
		useAI      bool
		public     bool
	)
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Create a game from a question set and host it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, topic, difficulty, count, useAI, public)
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic to host a game for")
	cmd.Flags().StringVar(&difficulty, "difficulty", "medium", "difficulty level")
	cmd.Flags().IntVar(&count, "count", 5, "number of questions when generating")
	cmd.Flags().BoolVar(&useAI, "use-ai", false, "use AI generation on a cache miss")
	cmd.Flags().BoolVar(&public, "public", true, "list the game publicly")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runHost(cmd *cobra.Command, topic, difficulty string, count int, useAI, public bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	uid, displayName := identity(cfg)
	client := newAPIClient(cfg)
	catalog := memory.NewCatalogCache(client, config.TTLDuration(cfg.Cache.CatalogTTL, defaultCatalogTTL))

	if err := checkTopic(ctx, catalog, topic); err != nil {
		return err
	}

	store := newSetStore(cfg)
	questions, err := store.Get(ctx, topic, difficulty)
	switch {
	case errors.Is(err, domain.ErrQuestionSetNotFound):
		fmt.Fprintf(out, "generating %d question(s) for %q...\n", count, topic)
		questions, err = generateSet(ctx, client, topic, difficulty, count, useAI, uid)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, topic, difficulty, questions); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "reusing cached question set for %q (%d questions)\n", topic, len(questions))
	}

	ch := socket.NewChannel(socketURL(cfg))
	if err := ch.Connect(ctx); err != nil {
		return err
	}
	defer ch.Disconnect()

	machine := game.NewMachine(ch, game.Config{
		QuestionSeconds: cfg.Game.QuestionSeconds,
		QuestionWait:    config.TTLDuration(cfg.Game.QuestionWait, 5*time.Second),
	})
	if err := machine.CreateGame(game.CreateGameParams{
		HostID:      uid,
		DisplayName: displayName,
		IsPublic:    public,
		Token:       cfg.Identity.Token,
		Topic:       topic,
		Questions:   questions,
		Count:       len(questions),
	}); err != nil {
		return err
	}

	gameID, err := waitForGameID(cmd, machine)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\ngame created - share code %s\n", gameID)

	if err := machine.Join(gameID, uid, displayName); err != nil {
		return err
	}
	return runSession(cmd, machine, cfg, topic)
}

func waitForGameID(cmd *cobra.Command, machine *game.Machine) (string, error) {
	timeout := time.After(15 * time.Second)
	for {
		select {
		case snap := <-machine.Updates():
			if snap.LastError != "" {
				return "", fmt.Errorf("create game: %s", snap.LastError)
			}
			if snap.GameID != "" {
				return snap.GameID, nil
			}
		case <-timeout:
			return "", errors.New("timed out waiting for game creation")
		case <-cmd.Context().Done():
			return "", cmd.Context().Err()
		}
	}
}
