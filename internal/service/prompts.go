// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"net/url"
	"strings"
)

const summarizerInstructions = `You are an expert summarizer. You write readable, concise, simple content. You are given the transcript of a meeting and you summarize it.

Use the following markdown structure for every output:

### Overview
A detailed, engaging summary of the session. Focus on the main topics, workflows and key takeaways. Write in a narrative style with full sentences.

### Notes
Break the content down into thematic sections with timestamp ranges. Each section lists its key points, actions or demos as bullets.

Example:
#### Section Name
- Main point or demo shown here
- Another key insight or interaction

#### Next Section
- Feature X automatically does Y
- Mention of integration with Z`

const summarizeRequestPrefix = "Summarize the following transcript: "

// chatInstructions builds the system message of a follow-up conversation about a
// completed meeting.
func chatInstructions(summary, agentInstructions string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant helping the user revisit a recently completed meeting.\n")
	b.WriteString("Below is a summary of the meeting, generated from the transcript:\n\n")
	b.WriteString(summary)
	b.WriteString("\n\nThe following are your original instructions from the live meeting assistant. ")
	b.WriteString("Keep following these behavioral guidelines while you assist the user:\n\n")
	b.WriteString(agentInstructions)
	b.WriteString("\n\nThe user may ask questions about the meeting, request clarifications or ask for follow-up actions. ")
	b.WriteString("Always base your answers on the meeting summary above.\n")
	b.WriteString("You can see the recent conversation history between you and the user. ")
	b.WriteString("Keep continuity with it when the user refers to something said earlier.\n")
	b.WriteString("If the summary does not contain enough information to answer a question, say so politely.\n")
	b.WriteString("Be concise, helpful, and stick to what the meeting and the conversation support.")
	return b.String()
}

const avatarBaseURL = "https://api.dicebear.com/9.x/bottts-neutral/svg"

// avatarURI returns the generated avatar image of an agent name.
func avatarURI(name string) string {
	return fmt.Sprintf("%s?seed=%s", avatarBaseURL, url.QueryEscape(name))
}
