// Package metrics defines the Recorder interface for application metrics.
// Implementations: NoopRecorder (disabled), InMemoryRecorder (tests),
// PrometheusRecorder (production scrape endpoint).
package metrics

import "time"

// Login outcomes passed to IncLogin.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginInactive           = "inactive"
	LoginNotFound           = "not_found"
)

// Activity event statuses passed to IncActivityEventRecorded.
const (
	ActivityQueued  = "queued"
	ActivityDropped = "dropped"
)

// Flush statuses passed to IncActivityFlush.
const (
	FlushSuccess = "success"
	FlushFailed  = "failed"
)

// Recorder records application metrics.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Auth metrics
	IncUserRegistered()
	IncLogin(outcome string)
	IncTokenRevoked()

	// Project metrics
	IncProjectCreated()
	IncProjectUpdated()
	IncProjectDeleted()
	IncParticipantAdded()
	IncParticipantRemoved()
	IncProjectCacheHit()
	IncProjectCacheMiss()

	// Document metrics
	IncDocumentUploaded()
	IncDocumentDeleted()
	ObserveUploadSize(bytes int64)

	// Activity pipeline metrics
	IncActivityEventRecorded(status string)
	IncActivityFlush(status string)
	ObserveActivityBatchSize(size int)
	ObserveActivityFlushDuration(duration time.Duration)
}

// Snapshotter exposes current counter values. Implemented by
// InMemoryRecorder so tests can assert on recorded metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
