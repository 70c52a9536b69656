package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bizadvisor/internal/app"
	"bizadvisor/internal/index"
	"bizadvisor/internal/ingest"
	"bizadvisor/internal/transport/http/response"
)

type DocumentHandler struct {
	ingestService *app.IngestService
}

func NewDocumentHandler(ingestService *app.IngestService) *DocumentHandler {
	return &DocumentHandler{ingestService: ingestService}
}

// Upload accepts a multipart form with "file" (PDF/TXT/CSV) and builds the
// session's knowledge base from it.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	doc, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		UserID:    userID,
		SessionID: sessionID,
		Filename:  file.Filename,
		Size:      file.Size,
		Reader:    f,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFormat, "Format file tidak didukung. Gunakan PDF, TXT, atau CSV.")
		case errors.Is(err, ingest.ErrParse):
			response.Error(c, http.StatusBadRequest, response.CodeParseFailed, "Gagal memproses file: dokumen rusak atau tidak terbaca.")
		case errors.Is(err, ingest.ErrStorage):
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Gagal menyimpan file sementara.")
		case errors.Is(err, index.ErrEmbedding):
			response.Error(c, http.StatusBadGateway, response.CodeProviderFailed, "Gagal membangun basis pengetahuan: embedding gagal.")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed")
		}
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	doc, err := h.ingestService.GetDocument(userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get document failed")
		}
		return
	}
	response.OK(c, doc)
}

// Clear drops the session's knowledge base and purges its temp files.
func (h *DocumentHandler) Clear(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	if err := h.ingestService.ClearDocuments(userID, sessionID); err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear documents failed")
		}
		return
	}
	response.OK(c, gin.H{"cleared_session_id": sessionID})
}
