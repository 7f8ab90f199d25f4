package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/speakerlab/analysis"
	"github.com/skillsenselab/speakerlab/diarization"
	apperrors "github.com/skillsenselab/speakerlab/errors"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/transcript"
	"github.com/skillsenselab/speakerlab/transcription"
)

type stubTranscriber struct{ result *transcription.Result }

func (s *stubTranscriber) Name() string                         { return "whisper" }
func (s *stubTranscriber) IsAvailable(ctx context.Context) bool { return true }
func (s *stubTranscriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	return s.result, nil
}

type stubDiarizer struct{ result *diarization.Result }

func (s *stubDiarizer) Name() string                         { return "pyannote" }
func (s *stubDiarizer) IsAvailable(ctx context.Context) bool { return true }
func (s *stubDiarizer) Diarize(ctx context.Context, req diarization.Request) (*diarization.Result, error) {
	return s.result, nil
}

func testHandler(t *testing.T) *Handler {
	t.Helper()
	svc := analysis.NewService(
		analysis.Config{OutputDir: t.TempDir(), SkipSpeakerClips: true},
		&stubTranscriber{result: &transcription.Result{
			Transcript: transcript.Transcript{Segments: []transcript.Segment{
				{Start: 0, End: 2, Text: "hello world", Words: []transcript.Word{
					{Start: 0, End: 1, Word: "hello "},
					{Start: 1, End: 2, Word: "world"},
				}},
			}},
		}},
		&stubDiarizer{result: &diarization.Result{Turns: []diarization.Turn{
			{Start: 0, End: 2, Speaker: "SPEAKER_00"},
		}}},
		nil, nil, nil, logger.NewDefault("test"),
	)
	return NewHandler(svc, nil, nil, t.TempDir(), logger.NewDefault("test"))
}

func testEngine(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h.Register(engine)
	return engine
}

func TestAnalyzeVideo_MissingFile(t *testing.T) {
	engine := testEngine(testHandler(t))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze-video", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	var body FailureResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "failed" {
		t.Errorf("status = %q, want failed", body.Status)
	}
}

func TestAnalyzeVideo_BadExtension(t *testing.T) {
	engine := testEngine(testHandler(t))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "clip.webm")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("not a real video"))
	mw.Close()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze-video", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for .webm, got %d: %s", rr.Code, rr.Body.String())
	}
	var body FailureResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Code != string(apperrors.ErrCodeInvalidFormat) {
		t.Errorf("code = %q, want %q", body.Code, apperrors.ErrCodeInvalidFormat)
	}
}

func TestAnalyzeVideoPath_MissingBody(t *testing.T) {
	engine := testEngine(testHandler(t))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze-video-path", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAnalyzeVideoPath_EmptyPath(t *testing.T) {
	engine := testEngine(testHandler(t))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze-video-path", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty video_path, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "video_path") {
		t.Errorf("error should name the field: %s", rr.Body.String())
	}
}

func TestAnalyzeVideoPath_NotFound(t *testing.T) {
	engine := testEngine(testHandler(t))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/analyze-video-path",
		strings.NewReader(`{"video_path":"/nonexistent/video.mp4"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRespondWithError_AppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)

	RespondWithError(c, apperrors.Unauthorized("bad token"))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body FailureResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "failed" || body.Code != string(apperrors.ErrCodeUnauthorized) {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestRespondWithError_UnknownError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)

	RespondWithError(c, context.DeadlineExceeded)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestToAnalysisResponse_StatusMapping(t *testing.T) {
	completed := toAnalysisResponse(&analysis.Result{Status: analysis.StatusCompleted})
	if completed.Status != "success" {
		t.Errorf("completed maps to %q, want success", completed.Status)
	}

	partial := toAnalysisResponse(&analysis.Result{
		Status:           analysis.StatusPartial,
		AggregationError: "stats failed",
	})
	if partial.Status != "partial" {
		t.Errorf("partial maps to %q, want partial", partial.Status)
	}
	if partial.Error != "stats failed" {
		t.Errorf("error = %q", partial.Error)
	}
}

func TestServerConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.MaxBodySize != "500MB" {
		t.Errorf("max_body_size = %q", cfg.MaxBodySize)
	}
	if len(cfg.Auth.SkipPaths) == 0 || cfg.Auth.SkipPaths[0] != "/health" {
		t.Errorf("auth skip paths = %v", cfg.Auth.SkipPaths)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Auth.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled auth without secret")
	}
}

func TestApplyMiddlewareMasksAuthSecret(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test")

	var cfg Config
	cfg.ApplyDefaults()
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = "super-secret-token"

	srv := New(cfg, log)
	srv.ApplyMiddleware()

	out := buf.String()
	if strings.Contains(out, "super-secret-token") {
		t.Fatalf("startup log leaks the auth secret: %s", out)
	}
	if !strings.Contains(out, "supe***") {
		t.Errorf("expected masked secret in startup log, got %s", out)
	}
}
