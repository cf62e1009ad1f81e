// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/service"
)

// JobHandlers binds the background pipelines to their job names.
type JobHandlers struct {
	transcripts *service.TranscriptPipeline
	chat        *service.ChatPipeline
	agents      *service.AgentConnection
}

// NewJobHandlers creates the job handlers.
func NewJobHandlers(
	transcripts *service.TranscriptPipeline,
	chat *service.ChatPipeline,
	agents *service.AgentConnection,
) *JobHandlers {
	return &JobHandlers{
		transcripts: transcripts,
		chat:        chat,
		agents:      agents,
	}
}

// HandlerReady reports whether every pipeline is wired.
func (h *JobHandlers) HandlerReady() bool {
	return h.transcripts.ServiceReady() &&
		h.chat.ServiceReady() &&
		h.agents.ServiceReady()
}

// Register binds every job name the service consumes to its pipeline.
func (h *JobHandlers) Register(runner *jobs.Runner) {
	handlers := map[string]jobs.Handler{
		models.JobMeetingProcessing: h.transcripts.Run,
		models.JobChatMessage:       h.chat.Run,
		models.JobConnectAgent:      h.agents.Run,
	}
	for _, name := range models.JobNames {
		runner.Register(name, handlers[name])
	}
}
