package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent          atomic.Uint64
	eventsPublished    atomic.Uint64
	snapshotsPublished atomic.Uint64
	commandsDropped    atomic.Uint64
	malformedInputs    atomic.Uint64
	publishFailures    atomic.Uint64
	tickDurationMillis atomic.Int64
	lastSnapshotBytes  atomic.Uint64
	debug              bool
}

type telemetrySnapshot struct {
	BytesSent          uint64 `json:"bytesSent"`
	EventsPublished    uint64 `json:"eventsPublished"`
	SnapshotsPublished uint64 `json:"snapshotsPublished"`
	CommandsDropped    uint64 `json:"commandsDropped"`
	MalformedInputs    uint64 `json:"malformedInputs"`
	PublishFailures    uint64 `json:"publishFailures"`
	TickDuration       int64  `json:"tickDurationMillis"`
	LastSnapshotBytes  uint64 `json:"lastSnapshotBytes"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordEvent(bytes int) {
	if bytes < 0 {
		bytes = 0
	}
	t.eventsPublished.Add(1)
	t.bytesSent.Add(uint64(bytes))
}

func (t *telemetryCounters) RecordSnapshot(bytes int) {
	if bytes < 0 {
		bytes = 0
	}
	t.snapshotsPublished.Add(1)
	t.bytesSent.Add(uint64(bytes))
	t.lastSnapshotBytes.Store(uint64(bytes))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms snapshotBytes=%d totalBytes=%d events=%d\n",
			millis,
			t.lastSnapshotBytes.Load(),
			t.bytesSent.Load(),
			t.eventsPublished.Load(),
		)
	}
}

func (t *telemetryCounters) IncrementCommandDrops() {
	t.commandsDropped.Add(1)
}

func (t *telemetryCounters) IncrementMalformed() {
	t.malformedInputs.Add(1)
}

func (t *telemetryCounters) IncrementPublishFailures() uint64 {
	return t.publishFailures.Add(1)
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:          t.bytesSent.Load(),
		EventsPublished:    t.eventsPublished.Load(),
		SnapshotsPublished: t.snapshotsPublished.Load(),
		CommandsDropped:    t.commandsDropped.Load(),
		MalformedInputs:    t.malformedInputs.Load(),
		PublishFailures:    t.publishFailures.Load(),
		TickDuration:       t.tickDurationMillis.Load(),
		LastSnapshotBytes:  t.lastSnapshotBytes.Load(),
	}
}
