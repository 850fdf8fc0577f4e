// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Sends one message and streams the reply to stdout. When stdout is a
// TTY and markdown rendering is on, the finished reply is reprinted
// through glamour; piped output stays plain so it never gains ANSI noise.
//
// Examples:
//   stemma ask "What is in a gin fizz?"
//   stemma ask --chat 42 --model gpt-4o "Continue from before"
//   stemma ask --plain "Just the text please" > reply.txt
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/config"
	"github.com/stemma-labs/stemma-tui/internal/model"
)

// HandleAsk runs the ask command. Returns an error suitable for printing.
func HandleAsk(parser *ArgParser) error {
	question := strings.TrimSpace(parser.JoinPositional(1))
	if question == "" {
		return fmt.Errorf("usage: stemma ask \"question\"")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	modelName := parser.FlagOrDefault("model", cfg.Chat.DefaultModel)
	if !model.ValidModel(modelName) {
		return fmt.Errorf("unknown model %q", modelName)
	}
	provider := string(model.ProviderFromModel(modelName))

	client := api.NewClient(&api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.Timeout(),
	}, cfg)

	ctx := context.Background()
	chatID := parser.Flag("chat")
	if chatID == "" {
		chatID, err = client.CreateChat(ctx)
		if err != nil {
			return fmt.Errorf("create chat: %w", err)
		}
	}

	var reply strings.Builder
	full, err := client.SendMessage(ctx, chatID, question, provider, modelName, func(chunk string) {
		reply.WriteString(chunk)
		fmt.Print(chunk)
	})
	if err != nil {
		fmt.Println()
		return err
	}
	fmt.Println()

	// Reprint rendered markdown for humans; keep pipes plain.
	if cfg.UI.Markdown && !parser.BoolFlag("plain") && stdoutIsTTY() {
		if rendered := renderMarkdown(full); rendered != full {
			fmt.Print("\n" + rendered)
		}
	}
	return nil
}

// stdoutIsTTY reports whether stdout is attached to a terminal.
func stdoutIsTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// renderMarkdown renders content for terminal display, falling back to
// the raw text if the renderer is unavailable or fails.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
