package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/spf13/cobra"
)

var (
	chatDataset  string
	chatLimit    int
	chatRetrieve bool
	chatHistory  bool
)

// contextPreviewChars bounds the /context preview.
const contextPreviewChars = 1500

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask questions about a dataset's evaluations",
	Long: `Ask natural language questions about the evaluated calls of a dataset.

With a question argument, answers it and exits. Without one, starts an
interactive session. Session commands:
  /reset     clear the chat history for the dataset
  /context   preview the evaluation context sent to the model
  /exit      leave the session

With --retrieve, only the calls most similar to each question are sent to the
model (requires Milvus and an OpenAI key; see "auditbot index").

Examples:
  auditbot chat --dataset Servicios
  auditbot chat --dataset Bloqueos "¿Qué comercios aparecen en los fraudes?"
  auditbot chat --dataset Retención --retrieve --history`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatDataset, "dataset", "", "Dataset to chat about (default: first configured)")
	chatCmd.Flags().IntVar(&chatLimit, "limit", 0, "Maximum calls in the context (0 = configured default)")
	chatCmd.Flags().BoolVar(&chatRetrieve, "retrieve", false, "Narrow the context to similar calls via the evaluation index")
	chatCmd.Flags().BoolVar(&chatHistory, "history", false, "Replay recent chat turns to the model")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{Retrieval: chatRetrieve, History: chatHistory})
	if err != nil {
		return err
	}
	defer assistant.Close()

	if chatRetrieve && !assistant.RetrievalEnabled() {
		fmt.Println(warnStyle.Render("⚠ Evaluation index unavailable, using the full context"))
	}

	sessionID := session.NewID()

	if len(args) == 1 {
		return askOnce(ctx, assistant, sessionID, chatDataset, args[0])
	}

	dataset, warnings := assistant.ResolveDataset(chatDataset)
	printWarnings(warnings)
	printHeader("Chat: "+dataset, "Escribe tu pregunta, /reset, /context o /exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(accentStyle.Render("› "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			assistant.ResetChat(sessionID, dataset)
			fmt.Println(successStyle.Render("✓ Chat history cleared"))
			continue
		case "/context":
			fmt.Println(mutedStyle.Render(assistant.ContextPreview(dataset, chatLimit, contextPreviewChars)))
			continue
		}

		if err := askOnce(ctx, assistant, sessionID, dataset, line); err != nil {
			return err
		}
	}
}

func askOnce(ctx context.Context, assistant *orchestrator.Assistant, sessionID, datasetName, question string) error {
	turn, err := assistant.Chat(ctx, sessionID, datasetName, chatLimit, question)
	if err != nil {
		return err
	}
	printWarnings(turn.Warnings)

	fmt.Println()
	fmt.Println(headerStyle.Render("Respuesta:"))
	if turn.OK {
		fmt.Println(textStyle.Render(strings.TrimSpace(turn.Answer)))
	} else {
		fmt.Println(errorStyle.Render(turn.Answer))
	}
	if turn.Retrieved > 0 {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("(%d of %d calls retrieved)", turn.Retrieved, turn.Records)))
	}
	fmt.Println()
	return nil
}
