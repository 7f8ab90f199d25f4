package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/speakerlab/analysis"
	apperrors "github.com/skillsenselab/speakerlab/errors"
	"github.com/skillsenselab/speakerlab/live"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/media"
	"github.com/skillsenselab/speakerlab/sse"
	"github.com/skillsenselab/speakerlab/validation"
)

// Handler exposes the analysis and live endpoints.
type Handler struct {
	service   *analysis.Service
	liveMgr   *live.Manager
	hub       *sse.Hub
	uploadDir string
	log       *logger.Logger
}

// NewHandler wires the HTTP handlers. liveMgr and hub may be nil when
// live capture is disabled.
func NewHandler(service *analysis.Service, liveMgr *live.Manager, hub *sse.Hub, uploadDir string, log *logger.Logger) *Handler {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &Handler{
		service:   service,
		liveMgr:   liveMgr,
		hub:       hub,
		uploadDir: uploadDir,
		log:       log.WithComponent("handler"),
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(engine *gin.Engine) {
	engine.POST("/analyze-video", h.AnalyzeVideo)
	engine.POST("/analyze-video-path", h.AnalyzeVideoPath)
	if h.liveMgr != nil {
		engine.POST("/live/start", h.LiveStart)
		engine.POST("/live/stop", h.LiveStop)
	}
	if h.hub != nil {
		engine.GET("/live/stream", h.LiveStream)
	}
}

// AnalyzeVideo accepts a multipart video upload, runs the full pipeline,
// and returns the labeled transcript with statistics. The upload is
// removed after processing.
func (h *Handler) AnalyzeVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("missing multipart field 'file'"))
		return
	}
	if err := media.CheckExtension(file.Filename); err != nil {
		RespondWithError(c, err)
		return
	}

	uploadPath := filepath.Join(h.uploadDir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer func() {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			h.log.Warn("failed to remove upload", logger.Fields(
				"path", uploadPath,
				logger.FieldError, err.Error(),
			))
		}
	}()

	result, err := h.service.ProcessVideo(c.Request.Context(), uploadPath)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, toAnalysisResponse(result))
}

// AnalyzeVideoPathRequest is the body of POST /analyze-video-path.
type AnalyzeVideoPathRequest struct {
	VideoPath string `json:"video_path" validate:"required"`
}

// AnalyzeVideoPath runs the pipeline on a server-local video file.
func (h *Handler) AnalyzeVideoPath(c *gin.Context) {
	var req AnalyzeVideoPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("invalid request body"))
		return
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		RespondWithError(c, apperrors.NotFound("video", req.VideoPath))
		return
	}

	result, err := h.service.ProcessVideo(c.Request.Context(), req.VideoPath)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, toAnalysisResponse(result))
}

// LiveStart launches the live capture pipeline.
func (h *Handler) LiveStart(c *gin.Context) {
	if err := h.liveMgr.Start(c.Request.Context()); err != nil {
		if err == live.ErrAlreadyRunning {
			c.JSON(http.StatusConflict, FailureResponse{
				Error:  err.Error(),
				Status: "failed",
			})
			return
		}
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "started"})
}

// LiveStop stops the live capture pipeline.
func (h *Handler) LiveStop(c *gin.Context) {
	if err := h.liveMgr.Stop(); err != nil {
		c.JSON(http.StatusConflict, FailureResponse{
			Error:  err.Error(),
			Status: "failed",
		})
		return
	}
	RespondOK(c, gin.H{"status": "stopped"})
}

// LiveStream attaches the client to the live transcript event stream.
func (h *Handler) LiveStream(c *gin.Context) {
	sse.ServeStream(h.hub, c.Writer, c.Request, uuid.New().String(), "live")
}

func toAnalysisResponse(r *analysis.Result) AnalysisResponse {
	resp := AnalysisResponse{
		Transcription: r.Transcription,
		SpeakerAudio:  r.SpeakerAudio,
		Error:         r.AggregationError,
	}
	if r.Statistics != nil {
		resp.Statistics = r.Statistics
	}
	switch r.Status {
	case analysis.StatusCompleted:
		resp.Status = "success"
	case analysis.StatusPartial:
		resp.Status = "partial"
	default:
		resp.Status = string(r.Status)
	}
	return resp
}
