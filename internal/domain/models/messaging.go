// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "strings"

// JetStream names used by the background job runner.
const (
	// JobsStream is the stream that stores every enqueued job.
	JobsStream = "MEETING_JOBS"

	// JobsSubjectPrefix prefixes every job subject.
	// The subject is of the form: jobs.<job name with dots>
	JobsSubjectPrefix = "jobs."

	// JobsWildcardSubject captures all job subjects.
	JobsWildcardSubject = "jobs.>"

	// DeadLetterSubjectPrefix prefixes jobs that exhausted their deliveries.
	// The subject is of the form: jobs.dead.<job name with dots>
	DeadLetterSubjectPrefix = "jobs.dead."
)

// JobSubject returns the subject a job is published on.
// "meetings/processing" becomes "jobs.meetings.processing".
func JobSubject(name string) string {
	return JobsSubjectPrefix + subjectToken(name)
}

// DeadLetterSubject returns the subject a failed job is moved to.
func DeadLetterSubject(name string) string {
	return DeadLetterSubjectPrefix + subjectToken(name)
}

// ConsumerName returns the durable consumer name of a job.
// "meetings/processing" becomes "meetings-processing".
func ConsumerName(name string) string {
	return strings.NewReplacer("/", "-", ".", "-").Replace(name)
}

func subjectToken(name string) string {
	return strings.NewReplacer("/", ".", " ", "_").Replace(name)
}
