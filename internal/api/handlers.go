package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mood-insights-go/internal/logger"
	"mood-insights-go/internal/types"
)

const (
	msgNoAudio       = "No audio file in request."
	msgNoFile        = "No file selected."
	msgTooLarge      = "Audio file is too large."
	msgNoText        = "No text provided."
	msgNoMood        = "No mood provided."
	msgInternalError = "Internal server error."
)

func (s *Server) uploadAudio(c *gin.Context) {
	log := logger.New().WithRequest(c.Request).WithField("handler", "upload_audio")

	if c.Request.ContentLength > s.maxUpload {
		fail(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	// multipart overhead is small next to the limit
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+1<<20)

	fh, err := c.FormFile("audio_blob")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			fail(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		case errors.Is(err, http.ErrMissingFile) && hasFormValue(c, "audio_blob"):
			// a file part with an empty filename is parsed as a plain value
			fail(c, http.StatusBadRequest, msgNoFile)
		default:
			log.WithError(err).Debug("no audio_blob part")
			fail(c, http.StatusBadRequest, msgNoAudio)
		}
		return
	}
	if fh.Filename == "" {
		fail(c, http.StatusBadRequest, msgNoFile)
		return
	}
	if fh.Size > s.maxUpload {
		fail(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		log.WithError(err).Error("open uploaded file")
		fail(c, http.StatusInternalServerError, msgInternalError)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		log.WithError(err).Error("read uploaded file")
		fail(c, http.StatusInternalServerError, msgInternalError)
		return
	}

	res, err := s.proc.ProcessAudio(c.Request.Context(), data, fh.Filename)
	if err != nil {
		failErr(c, err, msgNoFile)
		return
	}
	log.WithField("emotion", res.Emotion).WithField("duration_ms", res.DurationMs).Info("audio classified")
	c.JSON(http.StatusOK, types.UploadResponse{Success: true, Emotion: res.Emotion})
}

func (s *Server) processText(c *gin.Context) {
	var req types.TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgNoText)
		return
	}
	res, err := s.proc.ProcessText(c.Request.Context(), s.text, req.TextInput)
	if err != nil {
		failErr(c, err, msgNoText)
		return
	}
	c.JSON(http.StatusOK, types.UploadResponse{Success: true, Emotion: res.Emotion})
}

func (s *Server) quickMood(c *gin.Context) {
	var req types.QuickMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgNoMood)
		return
	}
	res, err := s.proc.ProcessText(c.Request.Context(), s.quick, req.Mood)
	if err != nil {
		failErr(c, err, msgNoMood)
		return
	}
	c.JSON(http.StatusOK, types.UploadResponse{Success: true, Emotion: res.Emotion})
}

func hasFormValue(c *gin.Context, key string) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[key]
	return ok
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, types.UploadResponse{Success: false, Message: msg})
}

// failErr answers 400 with invalidMsg for InvalidInput and 500 otherwise.
// The pipeline only returns InvalidInput, so 500 means a wiring bug.
func failErr(c *gin.Context, err error, invalidMsg string) {
	if types.IsInvalidInput(err) {
		fail(c, http.StatusBadRequest, invalidMsg)
		return
	}
	logger.New().WithRequest(c.Request).WithError(err).Error("unexpected pipeline error")
	fail(c, http.StatusInternalServerError, msgInternalError)
}
