package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests      uint64
	HTTPDurationTotal time.Duration

	UsersRegistered         uint64
	LoginSuccesses          uint64
	LoginInvalidCredentials uint64
	LoginInactive           uint64
	LoginNotFound           uint64
	TokensRevoked           uint64

	ProjectsCreated     uint64
	ProjectsUpdated     uint64
	ProjectsDeleted     uint64
	ParticipantsAdded   uint64
	ParticipantsRemoved uint64
	ProjectCacheHits    uint64
	ProjectCacheMisses  uint64

	DocumentsUploaded uint64
	DocumentsDeleted  uint64
	UploadBytesTotal  int64

	ActivityQueued             uint64
	ActivityDropped            uint64
	ActivityFlushes            uint64
	ActivityFlushFailures      uint64
	ActivityBatchEventsTotal   uint64
	ActivityFlushDurationTotal time.Duration
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests      uint64
	httpDurationNanos int64

	usersRegistered         uint64
	loginSuccesses          uint64
	loginInvalidCredentials uint64
	loginInactive           uint64
	loginNotFound           uint64
	tokensRevoked           uint64

	projectsCreated     uint64
	projectsUpdated     uint64
	projectsDeleted     uint64
	participantsAdded   uint64
	participantsRemoved uint64
	projectCacheHits    uint64
	projectCacheMisses  uint64

	documentsUploaded uint64
	documentsDeleted  uint64
	uploadBytesTotal  int64

	activityQueued           uint64
	activityDropped          uint64
	activityFlushes          uint64
	activityFlushFailures    uint64
	activityBatchEventsTotal uint64
	activityFlushDurationNs  int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		HTTPRequests:      atomic.LoadUint64(&m.httpRequests),
		HTTPDurationTotal: time.Duration(atomic.LoadInt64(&m.httpDurationNanos)),

		UsersRegistered:         atomic.LoadUint64(&m.usersRegistered),
		LoginSuccesses:          atomic.LoadUint64(&m.loginSuccesses),
		LoginInvalidCredentials: atomic.LoadUint64(&m.loginInvalidCredentials),
		LoginInactive:           atomic.LoadUint64(&m.loginInactive),
		LoginNotFound:           atomic.LoadUint64(&m.loginNotFound),
		TokensRevoked:           atomic.LoadUint64(&m.tokensRevoked),

		ProjectsCreated:     atomic.LoadUint64(&m.projectsCreated),
		ProjectsUpdated:     atomic.LoadUint64(&m.projectsUpdated),
		ProjectsDeleted:     atomic.LoadUint64(&m.projectsDeleted),
		ParticipantsAdded:   atomic.LoadUint64(&m.participantsAdded),
		ParticipantsRemoved: atomic.LoadUint64(&m.participantsRemoved),
		ProjectCacheHits:    atomic.LoadUint64(&m.projectCacheHits),
		ProjectCacheMisses:  atomic.LoadUint64(&m.projectCacheMisses),

		DocumentsUploaded: atomic.LoadUint64(&m.documentsUploaded),
		DocumentsDeleted:  atomic.LoadUint64(&m.documentsDeleted),
		UploadBytesTotal:  atomic.LoadInt64(&m.uploadBytesTotal),

		ActivityQueued:             atomic.LoadUint64(&m.activityQueued),
		ActivityDropped:            atomic.LoadUint64(&m.activityDropped),
		ActivityFlushes:            atomic.LoadUint64(&m.activityFlushes),
		ActivityFlushFailures:      atomic.LoadUint64(&m.activityFlushFailures),
		ActivityBatchEventsTotal:   atomic.LoadUint64(&m.activityBatchEventsTotal),
		ActivityFlushDurationTotal: time.Duration(atomic.LoadInt64(&m.activityFlushDurationNs)),
	}
}

// ObserveHTTPRequest records one handled request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	atomic.AddInt64(&m.httpDurationNanos, duration.Nanoseconds())
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLogin increments the login counter for the given outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	switch outcome {
	case LoginSuccess:
		atomic.AddUint64(&m.loginSuccesses, 1)
	case LoginInvalidCredentials:
		atomic.AddUint64(&m.loginInvalidCredentials, 1)
	case LoginInactive:
		atomic.AddUint64(&m.loginInactive, 1)
	case LoginNotFound:
		atomic.AddUint64(&m.loginNotFound, 1)
	}
}

// IncTokenRevoked increments the logout counter.
func (m *InMemoryRecorder) IncTokenRevoked() {
	atomic.AddUint64(&m.tokensRevoked, 1)
}

// IncProjectCreated increments the project created counter.
func (m *InMemoryRecorder) IncProjectCreated() {
	atomic.AddUint64(&m.projectsCreated, 1)
}

// IncProjectUpdated increments the project updated counter.
func (m *InMemoryRecorder) IncProjectUpdated() {
	atomic.AddUint64(&m.projectsUpdated, 1)
}

// IncProjectDeleted increments the project deleted counter.
func (m *InMemoryRecorder) IncProjectDeleted() {
	atomic.AddUint64(&m.projectsDeleted, 1)
}

// IncParticipantAdded increments the participant added counter.
func (m *InMemoryRecorder) IncParticipantAdded() {
	atomic.AddUint64(&m.participantsAdded, 1)
}

// IncParticipantRemoved increments the participant removed counter.
func (m *InMemoryRecorder) IncParticipantRemoved() {
	atomic.AddUint64(&m.participantsRemoved, 1)
}

// IncProjectCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncProjectCacheHit() {
	atomic.AddUint64(&m.projectCacheHits, 1)
}

// IncProjectCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncProjectCacheMiss() {
	atomic.AddUint64(&m.projectCacheMisses, 1)
}

// IncDocumentUploaded increments the upload counter.
func (m *InMemoryRecorder) IncDocumentUploaded() {
	atomic.AddUint64(&m.documentsUploaded, 1)
}

// IncDocumentDeleted increments the document deleted counter.
func (m *InMemoryRecorder) IncDocumentDeleted() {
	atomic.AddUint64(&m.documentsDeleted, 1)
}

// ObserveUploadSize adds to the uploaded byte total.
func (m *InMemoryRecorder) ObserveUploadSize(bytes int64) {
	atomic.AddInt64(&m.uploadBytesTotal, bytes)
}

// IncActivityEventRecorded increments queued or dropped event counters.
func (m *InMemoryRecorder) IncActivityEventRecorded(status string) {
	switch status {
	case ActivityQueued:
		atomic.AddUint64(&m.activityQueued, 1)
	case ActivityDropped:
		atomic.AddUint64(&m.activityDropped, 1)
	}
}

// IncActivityFlush increments flush success or failure counters.
func (m *InMemoryRecorder) IncActivityFlush(status string) {
	switch status {
	case FlushSuccess:
		atomic.AddUint64(&m.activityFlushes, 1)
	case FlushFailed:
		atomic.AddUint64(&m.activityFlushFailures, 1)
	}
}

// ObserveActivityBatchSize adds to the flushed event total.
func (m *InMemoryRecorder) ObserveActivityBatchSize(size int) {
	atomic.AddUint64(&m.activityBatchEventsTotal, uint64(size))
}

// ObserveActivityFlushDuration records flush duration.
func (m *InMemoryRecorder) ObserveActivityFlushDuration(duration time.Duration) {
	atomic.AddInt64(&m.activityFlushDurationNs, duration.Nanoseconds())
}
