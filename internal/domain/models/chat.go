// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "strings"

// Completion message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatHistoryLimit is the number of recent channel messages passed to the completion.
const ChatHistoryLimit = 5

// ChatMessage is a message read from a chat channel.
type ChatMessage struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

// ChatUser is an identity in the chat platform.
type ChatUser struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// CompletionMessage is a single message of a text-generation request.
type CompletionMessage struct {
	Role    string `json:"role" msgpack:"role"`
	Content string `json:"content" msgpack:"content"`
}

// CompletionRequest is a text-generation request.
type CompletionRequest struct {
	Model    string              `json:"model,omitempty"`
	Messages []CompletionMessage `json:"messages"`
}

// ConversationHistory maps the most recent non-blank channel messages to completion messages.
// Messages sent by agentID become assistant turns.
func ConversationHistory(messages []ChatMessage, agentID string, limit int) []CompletionMessage {
	kept := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		kept = append(kept, msg)
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}

	history := make([]CompletionMessage, 0, len(kept))
	for _, msg := range kept {
		role := RoleUser
		if msg.UserID == agentID {
			role = RoleAssistant
		}
		history = append(history, CompletionMessage{Role: role, Content: msg.Text})
	}
	return history
}
