package metrics

import "time"

// NoopRecorder discards all metrics. Used when metrics are disabled.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(outcome string) {}

// IncTokenRevoked is a no-op.
func (n *NoopRecorder) IncTokenRevoked() {}

// IncProjectCreated is a no-op.
func (n *NoopRecorder) IncProjectCreated() {}

// IncProjectUpdated is a no-op.
func (n *NoopRecorder) IncProjectUpdated() {}

// IncProjectDeleted is a no-op.
func (n *NoopRecorder) IncProjectDeleted() {}

// IncParticipantAdded is a no-op.
func (n *NoopRecorder) IncParticipantAdded() {}

// IncParticipantRemoved is a no-op.
func (n *NoopRecorder) IncParticipantRemoved() {}

// IncProjectCacheHit is a no-op.
func (n *NoopRecorder) IncProjectCacheHit() {}

// IncProjectCacheMiss is a no-op.
func (n *NoopRecorder) IncProjectCacheMiss() {}

// IncDocumentUploaded is a no-op.
func (n *NoopRecorder) IncDocumentUploaded() {}

// IncDocumentDeleted is a no-op.
func (n *NoopRecorder) IncDocumentDeleted() {}

// ObserveUploadSize is a no-op.
func (n *NoopRecorder) ObserveUploadSize(bytes int64) {}

// IncActivityEventRecorded is a no-op.
func (n *NoopRecorder) IncActivityEventRecorded(status string) {}

// IncActivityFlush is a no-op.
func (n *NoopRecorder) IncActivityFlush(status string) {}

// ObserveActivityBatchSize is a no-op.
func (n *NoopRecorder) ObserveActivityBatchSize(size int) {}

// ObserveActivityFlushDuration is a no-op.
func (n *NoopRecorder) ObserveActivityFlushDuration(duration time.Duration) {}
