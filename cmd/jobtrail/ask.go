package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jobtrail/jobtrail/internal/answer"
	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about your job search",
		Long: `Answer a question grounded in your resolved application records.

Status and counting questions are answered directly from the database;
open-ended questions retrieve the most relevant applications from the
vector index and ask the LLM to answer from that context only.

With no question argument, starts an interactive session.

Examples:
  jobtrail ask "which applications are waiting on an interview?"
  jobtrail ask "how many rejections did I get in March 2024?"
  jobtrail ask    # interactive`,
		RunE: runAsk,
	}

	cmd.Flags().Int("top-k", 0, "retrieved applications per semantic answer (0 = default)")
	_ = viper.BindPFlag("answer.top_k", cmd.Flags().Lookup("top-k"))

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	generator, err := createGenerator()
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer generator.Close()

	embedder, err := createEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	idx, err := createIndex(ctx, embedder.Dimension())
	if err != nil {
		return fmt.Errorf("failed to connect to vector index: %w", err)
	}

	answerer := answer.New(store, embedder, idx, generator, slog.Default(), viper.GetInt("answer.top_k"))

	if len(args) > 0 {
		return askOnce(ctx, answerer, strings.Join(args, " "))
	}
	return askInteractive(ctx, answerer)
}

func askOnce(ctx context.Context, answerer *answer.Answerer, question string) error {
	resp, err := answerer.Answer(ctx, question)
	if err != nil {
		return err
	}
	printAnswer(resp)
	return nil
}

func askInteractive(ctx context.Context, answerer *answer.Answerer) error {
	fmt.Println(cli.FormatTitle("jobtrail — ask about your applications"))
	fmt.Println(cli.SubtleStyle.Render("Empty line or Ctrl-D to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		resp, err := answerer.Answer(ctx, question)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Println(cli.FormatError(err.Error()))
			continue
		}
		printAnswer(resp)
	}
	return scanner.Err()
}

func printAnswer(resp answer.Response) {
	fmt.Println(resp.Text)
	if resp.Degraded {
		fmt.Println(cli.FormatWarning("Answer degraded: the language model was unavailable, showing stored records only."))
	}
	if len(resp.Sources) > 0 {
		fmt.Println(cli.SubtleStyle.Render("sources: " + strings.Join(resp.Sources, ", ")))
	}
}
