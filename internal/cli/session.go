package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quizlive-client/internal/config"
	"quizlive-client/internal/domain"
	"quizlive-client/internal/game"
	"quizlive-client/internal/infra/postgres"
)

// runSession drives an already-joined machine until the game finishes
// or the player quits. Input: option numbers answer the current
// question, "start" begins the game (host only), "quit" leaves.
func runSession(cmd *cobra.Command, machine *game.Machine, cfg config.Config, topic string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	input := make(chan string)
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case input <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	requested := false
	var last game.Snapshot
	for {
		select {
		case <-ctx.Done():
			machine.Leave()
			return ctx.Err()

		case line, ok := <-input:
			if !ok {
				machine.Leave()
				return nil
			}
			switch line {
			case "":
			case "quit":
				machine.Leave()
				fmt.Fprintln(out, "left the game")
				return nil
			case "start":
				if err := machine.StartGame(); err == domain.ErrNotHost {
					fmt.Fprintln(out, "only the host can start the game")
				} else if err != nil {
					return err
				}
			default:
				n, err := strconv.Atoi(line)
				if err != nil {
					fmt.Fprintln(out, "type an option number, 'start', or 'quit'")
					continue
				}
				if err := machine.SubmitAnswer(n - 1); err == domain.ErrInvalidIndex {
					fmt.Fprintln(out, "no such option")
				} else if err != nil {
					return err
				}
			}

		case snap := <-machine.Updates():
			render(out, last, snap)
			if snap.Phase == game.PhaseLobby && snap.TotalQuestions > 0 && !requested {
				// gameStarted arrived; ask for the first question.
				requested = true
				if err := machine.RequestQuestion(); err != nil {
					return err
				}
			}
			if snap.Phase == game.PhaseFinished {
				archiveSummary(ctx, cfg, snap, topic)
				machine.Leave()
				return nil
			}
			last = snap
		}
	}
}

func render(out io.Writer, last, snap game.Snapshot) {
	if snap.LastError != "" && snap.LastError != last.LastError {
		fmt.Fprintf(out, "server error: %s\n", snap.LastError)
	}

	switch snap.Phase {
	case game.PhaseLobby:
		if last.Phase != game.PhaseLobby || len(snap.Players) != len(last.Players) {
			fmt.Fprintf(out, "\nlobby %s - %d player(s):\n", snap.GameID, len(snap.Players))
			for _, p := range snap.Players {
				marker := "  "
				if p.UID == snap.HostID {
					marker = "* " // host
				}
				fmt.Fprintf(out, "  %s%s\n", marker, p.DisplayName)
			}
			if snap.IsHost() {
				fmt.Fprintln(out, "you are the host - type 'start' to begin")
			} else {
				fmt.Fprintln(out, "waiting for the host to start...")
			}
		}
		if snap.NoContent && !last.NoContent {
			fmt.Fprintln(out, "no questions arrived for this game - check that the set's topic matches the requested one")
		}

	case game.PhaseQuestion:
		newQuestion := last.Phase != game.PhaseQuestion || last.QuestionIndex != snap.QuestionIndex
		if newQuestion && snap.Question != nil {
			total := "?"
			if snap.TotalQuestions > 0 {
				total = strconv.Itoa(snap.TotalQuestions)
			}
			fmt.Fprintf(out, "\nquestion %d of %s: %s\n", snap.QuestionIndex+1, total, snap.Question.Text)
			for i, opt := range snap.Question.Options {
				fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
			}
		}
		if !newQuestion && snap.SecondsLeft != last.SecondsLeft {
			fmt.Fprintf(out, "  %ds left\n", snap.SecondsLeft)
		}
		if snap.SelectedIndex != nil && last.SelectedIndex == nil {
			fmt.Fprintf(out, "answer locked in: %d\n", *snap.SelectedIndex+1)
		}

	case game.PhaseReveal:
		if last.Phase != game.PhaseReveal && snap.Question != nil {
			if snap.CorrectIndex >= 0 && snap.CorrectIndex < len(snap.Question.Options) {
				fmt.Fprintf(out, "correct answer: %s\n", snap.Question.Options[snap.CorrectIndex])
			}
			if snap.Explanation != "" {
				fmt.Fprintf(out, "explanation: %s\n", snap.Explanation)
			}
			printLeaderboard(out, snap.Players)
		}

	case game.PhaseFinished:
		fmt.Fprintln(out, "\ngame over - final standings:")
		printLeaderboard(out, snap.Players)
	}
}

func printLeaderboard(out io.Writer, players []domain.Player) {
	for i, p := range game.Rank(players) {
		fmt.Fprintf(out, "  %-4s %s - %d pts\n", game.RankLabel(i), p.DisplayName, p.Score)
	}
}

// archiveSummary records the final standings when a results archive is
// configured. Best effort: a missing or unreachable archive never fails
// the game itself.
func archiveSummary(ctx context.Context, cfg config.Config, snap game.Snapshot, topic string) {
	if cfg.Postgres.URL == "" {
		return
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Warn().Err(err).Msg("archive unavailable, skipping summary save")
		return
	}
	defer pool.Close()

	summary := domain.GameSummary{
		GameID:     snap.GameID,
		Topic:      topic,
		Players:    snap.Players,
		FinishedAt: time.Now(),
	}
	if err := postgres.NewArchive(pool).SaveSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Str("game_id", snap.GameID).Msg("summary save failed")
		return
	}
	log.Info().Str("game_id", snap.GameID).Msg("summary archived")
}
