package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/spf13/cobra"
)

var transcribeOut string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio-file]",
	Short: "Upload a recording and transcribe it",
	Long: `Upload an MP3 recording to the configured object store and transcribe it with
the model, labelling speakers and timestamps.

Examples:
  auditbot transcribe llamada.mp3
  auditbot transcribe llamada.mp3 --out llamada.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVar(&transcribeOut, "out", "", "Write the transcription to this file")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Println(mutedStyle.Render("→ Uploading and transcribing " + filepath.Base(path) + "..."))
	view := assistant.Transcribe(ctx, session.NewID(), filepath.Base(path), data)
	if !view.OK {
		return fmt.Errorf("%s", view.Error)
	}

	printHeader("Transcripción", view.URI)
	fmt.Println(textStyle.Render(view.Transcription))
	fmt.Println()

	if transcribeOut != "" {
		if err := os.WriteFile(transcribeOut, []byte(view.Transcription+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write transcription: %w", err)
		}
		fmt.Println(successStyle.Render("✓ Transcription written to " + transcribeOut))
	}
	return nil
}
