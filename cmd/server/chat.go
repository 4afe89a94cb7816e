package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/content"
	"portfolio-chat/internal/repository"
	"portfolio-chat/internal/services"
)

// runChat drives one chat session from the terminal. Lines starting with a
// slash are commands, everything else is sent as a message.
func runChat(in io.Reader, out io.Writer) error {
	profile, err := content.Load(siteFile)
	if err != nil {
		return fmt.Errorf("site content: %w", err)
	}

	store := repository.NewMemorySessionStore(24 * time.Hour)
	defer store.Close()
	svc := services.NewChatService(store, nil, profile.Greeting, zap.NewNop())

	ctx := context.Background()
	visitorID := uuid.New()

	session, err := svc.Start(ctx, visitorID, initialQuery)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s)\n", profile.Title, profile.Name)
	printMessages(out, session.Messages)
	if session.IsEmptyState() {
		printPresets(out, profile)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		// commands are matched trimmed, messages are sent as typed
		message := scanner.Text()
		line := strings.TrimSpace(message)

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/presets":
			printPresets(out, profile)
			continue
		case line == "/reset":
			if err := svc.Reset(ctx, visitorID, session.ID); err != nil {
				return err
			}
			if session, err = svc.Start(ctx, visitorID, ""); err != nil {
				return err
			}
			printMessages(out, session.Messages)
			continue
		case strings.HasPrefix(line, "/"):
			preset, ok := profile.Preset(strings.TrimPrefix(line, "/"))
			if !ok {
				fmt.Fprintf(out, "unknown command %s, try /presets\n", line)
				continue
			}
			message = preset.Prompt
		}

		appended, _, err := svc.Submit(ctx, visitorID, session.ID, message)
		if err != nil {
			return err
		}
		printMessages(out, appended)
	}
}

func printMessages(out io.Writer, messages []chat.Message) {
	for _, m := range messages {
		if m.Role == chat.RoleUser {
			fmt.Fprintf(out, "you: %s\n", m.Content)
			continue
		}
		fmt.Fprintf(out, "bot: %s\n", m.Content)
	}
}

func printPresets(out io.Writer, profile *content.Profile) {
	fmt.Fprintln(out, "Try one of:")
	for _, p := range profile.Presets {
		fmt.Fprintf(out, "  /%-10s %s\n", p.Key, p.Prompt)
	}
	fmt.Fprintln(out, "  /reset, /quit")
}
