package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizlive-client/internal/domain"
)

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List joinable public games",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			games, err := newAPIClient(cfg).PublicGames(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(games) == 0 {
				fmt.Fprintln(out, "no public games right now")
				return nil
			}
			for _, g := range games {
				status := g.Status
				if status == "" {
					status = domain.StatusWaiting
				}
				fmt.Fprintf(out, "%-10s %-20s %-12s %d player(s)\n", g.GameID, g.Topic, status, g.Players)
			}
			return nil
		},
	}
}
