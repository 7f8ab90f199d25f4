package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/speakerlab/errors"
)

// AnalysisResponse is the wire shape of a successful analysis.
type AnalysisResponse struct {
	Transcription any    `json:"transcription"`
	Statistics    any    `json:"statistics,omitempty"`
	SpeakerAudio  any    `json:"speaker_audio,omitempty"`
	Status        string `json:"status"`
	// Error is set on partial results (statistics or clip slicing failed).
	Error string `json:"error,omitempty"`
}

// FailureResponse is the wire shape of a failed request.
type FailureResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status"`
}

// RespondWithError maps err onto the failure contract. An *AppError
// carries its own HTTP status; anything else becomes a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	c.JSON(appErr.HTTPStatus, FailureResponse{
		Error:  appErr.Message,
		Code:   string(appErr.Code),
		Status: "failed",
	})
}

// RespondOK sends a 200 response with body as-is.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
