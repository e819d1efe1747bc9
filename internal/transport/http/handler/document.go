package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marineai-backend/internal/app"
	"marineai-backend/internal/model"
	"marineai-backend/internal/repository"
	"marineai-backend/internal/transport/http/response"
)

var allowedUploadExts = map[string]string{
	".pdf":  model.FileTypePDF,
	".jpg":  model.FileTypeImage,
	".jpeg": model.FileTypeImage,
	".png":  model.FileTypeImage,
}

type DocumentHandler struct {
	docService    *app.DocumentService
	ingestService *app.IngestService
	retrieval     *app.RetrievalService
	uploadDir     string
	maxUploadSize int64
}

func NewDocumentHandler(
	docService *app.DocumentService,
	ingestService *app.IngestService,
	retrieval *app.RetrievalService,
	uploadDir string,
	maxUploadSize int64,
) *DocumentHandler {
	return &DocumentHandler{
		docService:    docService,
		ingestService: ingestService,
		retrieval:     retrieval,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
	}
}

type UpdateChunkRequest struct {
	ChunkText string `json:"chunk_text" binding:"required"`
}

type SearchRequest struct {
	Query       string `json:"query" binding:"required"`
	TopK        int    `json:"top_k"`
	Purpose     string `json:"purpose"`
	DocumentIDs []uint `json:"document_ids"`
}

// Upload accepts a multipart form with "file", "purpose" and optional
// "category", then runs the full ingestion pipeline synchronously. The
// response always carries the document id, even when ingestion failed,
// so the caller can inspect or delete the errored record.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest,
			fmt.Sprintf("file too large (max %dMB)", h.maxUploadSize>>20))
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileType, ok := allowedUploadExts[ext]
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only pdf, jpg, jpeg and png files are allowed")
		return
	}

	purpose := strings.TrimSpace(c.PostForm("purpose"))
	if purpose == "" {
		purpose = model.PurposeConsultant
	}
	category := strings.TrimSpace(c.PostForm("category"))

	doc, err := h.docService.CreateForUpload(filepath.Base(file.Filename), fileType, purpose, category)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create document failed")
		}
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.markUploadFailed(doc.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save file failed")
		return
	}
	dst := filepath.Join(h.uploadDir, fmt.Sprintf("%d_%s", doc.ID, filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.markUploadFailed(doc.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save file failed")
		return
	}

	status, _ := h.ingestService.Ingest(c.Request.Context(), doc.ID, dst, fileType)

	result := gin.H{
		"id":       doc.ID,
		"filename": doc.Filename,
		"purpose":  doc.Purpose,
		"status":   status,
	}
	if detail, err := h.docService.Detail(doc.ID); err == nil {
		result["status"] = detail.Document.Status
		result["chunks_count"] = len(detail.Chunks)
		if detail.Document.ErrorMsg != nil {
			result["error_msg"] = *detail.Document.ErrorMsg
		}
	}
	response.OK(c, result)
}

func (h *DocumentHandler) markUploadFailed(id uint, cause error) {
	if err := h.docService.MarkError(id, "failed to save uploaded file: "+cause.Error()); err != nil {
		log.Printf("document %d: mark upload error failed: %v", id, err)
	}
}

func (h *DocumentHandler) List(c *gin.Context) {
	purpose := strings.TrimSpace(c.Query("purpose"))
	docs, err := h.docService.List(purpose)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		}
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Detail(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	detail, err := h.docService.Detail(id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get document failed")
		}
		return
	}
	response.OK(c, detail)
}

func (h *DocumentHandler) UpdateChunk(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid chunk id")
		return
	}
	var req UpdateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	chunk, err := h.docService.UpdateChunkText(c.Request.Context(), id, req.ChunkText)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrChunkNotFound):
			response.Error(c, http.StatusNotFound, response.CodeChunkNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update chunk failed")
		}
		return
	}
	response.OK(c, chunk)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	if err := h.docService.Delete(id); err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

// Search exposes raw similarity search without a threshold; callers
// apply their own cutoff the way the chat flow does.
func (h *DocumentHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if req.Purpose != "" && !model.ValidPurpose(req.Purpose) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid purpose")
		return
	}
	results := h.retrieval.Search(c.Request.Context(), req.Query, req.TopK, req.Purpose, req.DocumentIDs)
	if results == nil {
		results = []repository.ChunkSearchResult{}
	}
	response.OK(c, gin.H{"results": results})
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
