package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quizlive-client/internal/game"
	"quizlive-client/internal/infra/postgres"
)

func newStatsCmd() *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your player statistics and locally archived games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, recent)
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 5, "number of archived games to show")
	return cmd
}

func runStats(cmd *cobra.Command, recent int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	uid, displayName := identity(cfg)

	stats, err := newAPIClient(cfg).MyStats(ctx, uid)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "stats for %s:\n", displayName)
	fmt.Fprintf(out, "  games played:    %d\n", stats.GamesPlayed)
	fmt.Fprintf(out, "  games won:       %d\n", stats.GamesWon)
	fmt.Fprintf(out, "  total score:     %d\n", stats.TotalScore)
	fmt.Fprintf(out, "  correct answers: %d\n", stats.CorrectAnswers)

	if cfg.Postgres.URL == "" || recent <= 0 {
		return nil
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect archive: %w", err)
	}
	defer pool.Close()

	summaries, err := postgres.NewArchive(pool).RecentSummaries(ctx, recent)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nlast %d archived game(s):\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(out, "  %s  %s  (%s)\n", s.FinishedAt.Format("2006-01-02 15:04"), s.GameID, s.Topic)
		for i, p := range game.Rank(s.Players) {
			fmt.Fprintf(out, "    %-4s %s - %d pts\n", game.RankLabel(i), p.DisplayName, p.Score)
		}
	}
	return nil
}
