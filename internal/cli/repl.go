// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Interactive line-mode chat.
//
// A readline-style loop for terminals where the full TUI is unwanted,
// with history, slash commands, and branch-and-continue.
//
// Slash commands:
//   /quit             Exit
//   /model [name]     Show or switch the model
//   /provider [name]  Switch vendor, keeping the model when it fits
//   /branch [name]    Fork a new chat from the latest message
//   /chats            List chats
//   /open ID          Switch to another chat
//   /help             Show this list
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/config"
	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// replInput wraps liner with persistent history.
type replInput struct {
	line        *liner.State
	historyFile string
}

func newReplInput() *replInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &replInput{
		line:        line,
		historyFile: filepath.Join(dir, "repl_history"),
	}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (in *replInput) read(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// close persists history with owner-only permissions and shuts liner down.
func (in *replInput) close() {
	if err := config.EnsureDir(); err == nil {
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// replState is the mutable state of one REPL run.
type replState struct {
	client    *api.Client
	chatID    string
	modelName string
	lastMsgID string
}

// HandleRepl runs the interactive loop until /quit or EOF.
func HandleRepl(parser *ArgParser) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	modelName := parser.FlagOrDefault("model", cfg.Chat.DefaultModel)
	if !model.ValidModel(modelName) {
		return fmt.Errorf("unknown model %q", modelName)
	}

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

	state := &replState{client: client, chatID: chatID, modelName: modelName}
	input := newReplInput()
	defer input.close()

	fmt.Printf("chat %s on %s, /help for commands\n", state.chatID, state.modelName)

	for {
		text, err := input.read("stemma> ")
		if err != nil {
			// Ctrl+C or EOF both end the session cleanly.
			fmt.Println()
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			quit, err := state.slashCommand(ctx, text)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := state.send(ctx, text); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// send streams one message and tracks the reply's authoritative ID.
func (s *replState) send(ctx context.Context, text string) error {
	provider := string(model.ProviderFromModel(s.modelName))
	_, err := s.client.SendMessage(ctx, s.chatID, text, provider, s.modelName, func(chunk string) {
		fmt.Print(chunk)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	// The stream carries no IDs; the transcript does.
	messages, err := s.client.ListMessages(ctx, s.chatID)
	if err == nil && len(messages) > 0 {
		s.lastMsgID = messages[len(messages)-1].ID
	}
	return nil
}

// slashCommand executes one / command. The bool result requests exit.
func (s *replState) slashCommand(ctx context.Context, text string) (bool, error) {
	fields := strings.Fields(text)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Print(replHelp)
		return false, nil

	case "/model":
		if arg == "" {
			fmt.Println(s.modelName)
			return false, nil
		}
		if !model.ValidModel(arg) {
			return false, fmt.Errorf("unknown model %q", arg)
		}
		s.modelName = arg
		fmt.Printf("switched to %s\n", arg)
		return false, nil

	case "/provider":
		if arg == "" {
			fmt.Println(model.ProviderFromModel(s.modelName))
			return false, nil
		}
		p := model.Provider(arg)
		if model.DefaultModelFor(p) == "" {
			return false, fmt.Errorf("unknown provider %q", arg)
		}
		s.modelName = model.SwitchProvider(p, s.modelName)
		fmt.Printf("switched to %s\n", s.modelName)
		return false, nil

	case "/branch":
		if s.lastMsgID == "" {
			return false, fmt.Errorf("nothing to branch from yet")
		}
		newID, err := s.client.BranchFrom(ctx, s.chatID, s.lastMsgID, arg, nil)
		if err != nil {
			return false, err
		}
		s.chatID = newID
		fmt.Printf("branched into chat %s\n", newID)
		return false, nil

	case "/chats":
		chats, err := s.client.ListChats(ctx)
		if err != nil {
			return false, err
		}
		for _, c := range chats {
			marker := "  "
			if c.ID == s.chatID {
				marker = "* "
			}
			fmt.Printf("%s%s  %s\n", marker, c.ID, c.DisplayName())
		}
		return false, nil

	case "/open":
		if arg == "" {
			return false, fmt.Errorf("usage: /open ID")
		}
		s.chatID = arg
		s.lastMsgID = ""
		fmt.Printf("switched to chat %s\n", arg)
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s, /help lists commands", cmd)
	}
}

const replHelp = `/quit            exit
/model [name]    show or switch the model
/provider [name] switch vendor, keeping the model when it fits
/branch [name]   fork a new chat from the latest message
/chats           list chats
/open ID         switch to another chat
`
