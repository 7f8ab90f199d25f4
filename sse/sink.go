package sse

import (
	"encoding/json"

	"github.com/skillsenselab/speakerlab/live"
	"github.com/skillsenselab/speakerlab/logger"
)

// LiveSink forwards live pipeline events to a broadcast stream. It
// implements live.Sink.
type LiveSink struct {
	broadcaster Broadcaster
	stream      string
}

// NewLiveSink publishes pipeline events to the named stream.
func NewLiveSink(b Broadcaster, stream string) *LiveSink {
	return &LiveSink{broadcaster: b, stream: stream}
}

// Publish marshals the event and fans it out to stream subscribers.
func (s *LiveSink) Publish(e live.Event) {
	payload := struct {
		Type      string `json:"type"`
		Text      string `json:"text,omitempty"`
		Timestamp int64  `json:"timestamp"`
	}{
		Type:      string(e.Type),
		Text:      e.Text,
		Timestamp: e.Timestamp.Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal live event", logger.Fields(
			logger.FieldError, err.Error(),
		))
		return
	}
	s.broadcaster.Broadcast(s.stream, data)
}

var _ live.Sink = (*LiveSink)(nil)
