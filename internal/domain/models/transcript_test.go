// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `{"speaker_id":"u1","type":"transcript","text":"hello","start_ts":0,"stop_ts":2}
{"speaker_id":"ghost","type":"transcript","text":"who am I","start_ts":2,"stop_ts":4}
`

func TestParseTranscript(t *testing.T) {
	items, err := ParseTranscript(sampleTranscript)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, TranscriptItem{SpeakerID: "u1", Type: "transcript", Text: "hello", StartTs: 0, StopTs: 2}, items[0])
	assert.Equal(t, "ghost", items[1].SpeakerID)
}

func TestParseTranscript_BlankLinesIgnored(t *testing.T) {
	items, err := ParseTranscript("\n\n" + sampleTranscript + "\n   \n")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestParseTranscript_Empty(t *testing.T) {
	items, err := ParseTranscript("")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseTranscript_MalformedLineFailsDocument(t *testing.T) {
	_, err := ParseTranscript(sampleTranscript + "{broken\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestAnnotateSpeakers(t *testing.T) {
	items, err := ParseTranscript(sampleTranscript + `{"speaker_id":"","type":"transcript","text":"?","start_ts":4,"stop_ts":5}`)
	require.NoError(t, err)

	annotated := AnnotateSpeakers(items, map[string]string{"u1": "Ada"})
	require.Len(t, annotated, 3)
	assert.Equal(t, "Ada", annotated[0].User.Name)
	assert.Equal(t, UnknownSpeakerName, annotated[1].User.Name)
	assert.Equal(t, UnknownSpeakerName, annotated[2].User.Name)

	raw, err := json.Marshal(annotated[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"speaker_id":"u1","type":"transcript","text":"hello","start_ts":0,"stop_ts":2,"user":{"name":"Ada"}}`, string(raw))
}

func TestSpeakerIDs(t *testing.T) {
	items := []TranscriptItem{
		{SpeakerID: "a"}, {SpeakerID: ""}, {SpeakerID: "b"}, {SpeakerID: "a"},
	}
	assert.Equal(t, []string{"a", "b"}, SpeakerIDs(items))
}
