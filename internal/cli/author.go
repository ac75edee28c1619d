package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizlive-client/internal/domain"
)

func newAuthorCmd() *cobra.Command {
	var (
		topic   string
		text    string
		options []string
		correct int
		explain string
	)
	cmd := &cobra.Command{
		Use:   "author",
		Short: "Write a single question by hand and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			uid, _ := identity(cfg)
			q := domain.AuthoredQuestion{
				Text:         text,
				Options:      options,
				CorrectIndex: correct - 1,
				Category:     topic,
				Explanation:  explain,
				CreatedBy:    uid,
			}
			// Validation happens client-side in CreateQuestion; a bad
			// question never reaches the network.
			if err := newAPIClient(cfg).CreateQuestion(cmd.Context(), q); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "question saved under topic %q\n", topic)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic to file the question under")
	cmd.Flags().StringVar(&text, "text", "", "question text")
	cmd.Flags().StringArrayVar(&options, "option", nil, "an answer option (repeat per option)")
	cmd.Flags().IntVar(&correct, "correct", 1, "1-based index of the correct option")
	cmd.Flags().StringVar(&explain, "explanation", "", "optional explanation shown at reveal")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
