package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Malikxolo/Customer-Support-agent/internal/agent"
	"github.com/Malikxolo/Customer-Support-agent/internal/config"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the support agent on the terminal",
	Long:  `Starts an interactive conversation. Type a message and press enter; "exit" or Ctrl-D ends the session.`,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, span := tracer.Start(cmd.Context(), "chat")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, err := buildPipeline(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer p.close()

	owner := "cli-" + uuid.NewString()[:8]
	var history []transcript.Message

	fmt.Println("Connected to support. How can we help? (type 'exit' to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		resp := p.orchestrator.ProcessTurn(ctx, agent.TurnRequest{
			Owner:      owner,
			Message:    message,
			Transcript: history,
		})
		fmt.Println(resp.Reply)

		history = append(history,
			transcript.Message{Role: transcript.RoleUser, Content: message},
			transcript.Message{Role: transcript.RoleAssistant, Content: resp.Reply},
		)
	}

	fmt.Println("Goodbye!")
	return scanner.Err()
}
