package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-chat/internal/chat"
)

func runChatWith(t *testing.T, query, input string) string {
	t.Helper()
	initialQuery, siteFile = query, ""
	t.Cleanup(func() { initialQuery = "" })

	var out bytes.Buffer
	require.NoError(t, runChat(strings.NewReader(input), &out))
	return out.String()
}

func TestRunChat_InitialQueryIsAnsweredOnce(t *testing.T) {
	out := runChatWith(t, "Hello", "/quit\n")

	assert.Equal(t, 1, strings.Count(out, "you: Hello"))
	assert.Contains(t, out, "bot: "+chat.EchoReply("Hello"))
	assert.NotContains(t, out, "Try one of:")
}

func TestRunChat_EmptyStateListsPresets(t *testing.T) {
	out := runChatWith(t, "", "")

	assert.Contains(t, out, "Try one of:")
	assert.Contains(t, out, "/Contact")
}

func TestRunChat_MessagesAndPresets(t *testing.T) {
	out := runChatWith(t, "", "   \nWhat do you do?\n/Skills\n/nope\n")

	assert.Contains(t, out, "bot: "+chat.EchoReply("What do you do?"))
	assert.Equal(t, 2, strings.Count(out, "you: "))
	assert.Contains(t, out, "unknown command /nope")
}

func TestRunChat_Reset(t *testing.T) {
	out := runChatWith(t, "Hello", "/reset\n/quit\n")

	assert.Equal(t, 2, strings.Count(out, "bot: Hi! I'm Deepika's assistant. Ask me anything!"))
}

func TestRunChat_SubmitsLiteralText(t *testing.T) {
	out := runChatWith(t, "", "  padded  \n")

	assert.Contains(t, out, "you:   padded  \n")
	assert.Contains(t, out, "bot: "+chat.EchoReply("  padded  "))
}
