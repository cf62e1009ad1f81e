// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service holds the meeting lifecycle: webhook verification and dispatch, and the
// background pipelines that run after a meeting ends.
package service

// Service is implemented by every component that needs its dependencies wired before use.
type Service interface {
	ServiceReady() bool
}

var (
	_ Service = (*MeetingLifecycle)(nil)
	_ Service = (*WebhookVerifier)(nil)
	_ Service = (*WebhookDispatcher)(nil)
	_ Service = (*TranscriptPipeline)(nil)
	_ Service = (*ChatPipeline)(nil)
	_ Service = (*AgentConnection)(nil)
)
