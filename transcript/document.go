package transcript

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "github.com/skillsenselab/speakerlab/errors"
)

// The labeled transcript is persisted as a JSON document and re-read from
// storage by the audio-segmentation stage. The field requirements below are a
// real contract, not an incidental serialization.

// Save writes the transcript document to path as indented JSON.
func Save(t *Transcript, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript %s: %w", path, err)
	}
	return nil
}

// Load reads and validates a transcript document from path.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw document bytes against the required-field contract and
// decodes them. Validation happens on the raw JSON so that missing fields are
// distinguishable from zero values.
func Parse(data []byte) (*Transcript, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, apperrors.MalformedTranscript(err.Error())
	}
	return &t, nil
}

// ValidateDocument checks the required fields of a transcript document:
// segments is a list; each segment has start, end, text, words; each word has
// start, end, word. It also rejects intervals with end < start.
func ValidateDocument(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperrors.MalformedTranscript("document is not a JSON object")
	}

	rawSegments, ok := doc["segments"]
	if !ok {
		return apperrors.MalformedTranscript("missing segments")
	}
	var segments []map[string]json.RawMessage
	if err := json.Unmarshal(rawSegments, &segments); err != nil {
		return apperrors.MalformedTranscript("segments is not a list")
	}

	for i, seg := range segments {
		start, err := requireNumber(seg, "start", "segment", i)
		if err != nil {
			return err
		}
		end, err := requireNumber(seg, "end", "segment", i)
		if err != nil {
			return err
		}
		if end < start {
			return apperrors.MalformedTranscript(fmt.Sprintf("segment %d has end before start", i))
		}
		if _, ok := seg["text"]; !ok {
			return apperrors.MalformedTranscript(fmt.Sprintf("segment %d missing text", i))
		}
		rawWords, ok := seg["words"]
		if !ok {
			return apperrors.MalformedTranscript(fmt.Sprintf("segment %d missing words", i))
		}
		var words []map[string]json.RawMessage
		if err := json.Unmarshal(rawWords, &words); err != nil {
			return apperrors.MalformedTranscript(fmt.Sprintf("segment %d words is not a list", i))
		}
		for j, word := range words {
			ws, err := requireNumber(word, "start", "word", j)
			if err != nil {
				return err
			}
			we, err := requireNumber(word, "end", "word", j)
			if err != nil {
				return err
			}
			if we < ws {
				return apperrors.MalformedTranscript(fmt.Sprintf("segment %d word %d has end before start", i, j))
			}
			if _, ok := word["word"]; !ok {
				return apperrors.MalformedTranscript(fmt.Sprintf("segment %d word %d missing word", i, j))
			}
		}
	}
	return nil
}

func requireNumber(obj map[string]json.RawMessage, key, kind string, idx int) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, apperrors.MalformedTranscript(fmt.Sprintf("%s %d missing %s", kind, idx, key))
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, apperrors.MalformedTranscript(fmt.Sprintf("%s %d field %s is not a number", kind, idx, key))
	}
	return v, nil
}
