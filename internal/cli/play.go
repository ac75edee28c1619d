package cli

import (
	"time"

	"github.com/spf13/cobra"

	"quizlive-client/internal/config"
	"quizlive-client/internal/game"
	"quizlive-client/internal/transport/socket"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <game-code>",
		Short: "Join a game by its code and play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args[0])
		},
	}
}

func runPlay(cmd *cobra.Command, code string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	uid, displayName := identity(cfg)

	ch := socket.NewChannel(socketURL(cfg))
	if err := ch.Connect(cmd.Context()); err != nil {
		return err
	}
	// This command opened the connection, so it closes it. A machine
	// never does: the channel may be shared.
	defer ch.Disconnect()

	machine := game.NewMachine(ch, game.Config{
		QuestionSeconds: cfg.Game.QuestionSeconds,
		QuestionWait:    config.TTLDuration(cfg.Game.QuestionWait, 5*time.Second),
	})
	if err := machine.Join(code, uid, displayName); err != nil {
		return err
	}
	return runSession(cmd, machine, cfg, "")
}
