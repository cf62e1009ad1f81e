// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UnknownSpeakerName is attached to transcript items whose speaker cannot be resolved.
const UnknownSpeakerName = "Unknown"

// TranscriptItem is a single utterance of a call transcript.
type TranscriptItem struct {
	SpeakerID string `json:"speaker_id" msgpack:"speaker_id"`
	Type      string `json:"type" msgpack:"type"`
	Text      string `json:"text" msgpack:"text"`
	StartTs   int64  `json:"start_ts" msgpack:"start_ts"`
	StopTs    int64  `json:"stop_ts" msgpack:"stop_ts"`
}

// TranscriptSpeaker is the resolved identity of a transcript speaker.
type TranscriptSpeaker struct {
	Name string `json:"name" msgpack:"name"`
}

// AnnotatedTranscriptItem is a transcript item with its resolved speaker.
type AnnotatedTranscriptItem struct {
	TranscriptItem `msgpack:",inline"`
	User           TranscriptSpeaker `json:"user" msgpack:"user"`
}

// ParseTranscript decodes a line-delimited JSON transcript document.
// Blank lines are ignored; any other line that fails to decode fails the whole document.
func ParseTranscript(doc string) ([]TranscriptItem, error) {
	items := []TranscriptItem{}

	scanner := bufio.NewScanner(strings.NewReader(doc))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var item TranscriptItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("transcript line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return items, nil
}

// SpeakerIDs returns the distinct non-empty speaker ids in order of first appearance.
func SpeakerIDs(items []TranscriptItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := []string{}
	for _, item := range items {
		if item.SpeakerID == "" {
			continue
		}
		if _, ok := seen[item.SpeakerID]; ok {
			continue
		}
		seen[item.SpeakerID] = struct{}{}
		ids = append(ids, item.SpeakerID)
	}
	return ids
}

// AnnotateSpeakers attaches the display name of each item's speaker, or UnknownSpeakerName.
func AnnotateSpeakers(items []TranscriptItem, names map[string]string) []AnnotatedTranscriptItem {
	annotated := make([]AnnotatedTranscriptItem, 0, len(items))
	for _, item := range items {
		name, ok := names[item.SpeakerID]
		if !ok || item.SpeakerID == "" {
			name = UnknownSpeakerName
		}
		annotated = append(annotated, AnnotatedTranscriptItem{
			TranscriptItem: item,
			User:           TranscriptSpeaker{Name: name},
		})
	}
	return annotated
}
