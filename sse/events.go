package sse

// Event type names on the wire.
const (
	// EventTypeConnected is sent once when a client attaches to a stream.
	EventTypeConnected = "connected"

	// EventTypeTranscript carries recognized live-transcription text.
	EventTypeTranscript = "transcript"

	// EventTypeStatus carries pipeline lifecycle notices.
	EventTypeStatus = "status"

	// EventTypeError is sent when stream processing fails.
	EventTypeError = "error"
)
