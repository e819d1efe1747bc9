package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marineai-backend/internal/app"
	"marineai-backend/internal/model"
	"marineai-backend/internal/transport/http/response"
)

type RagChatHandler struct {
	chatService *app.ChatService
	docService  *app.DocumentService
}

func NewRagChatHandler(chatService *app.ChatService, docService *app.DocumentService) *RagChatHandler {
	return &RagChatHandler{chatService: chatService, docService: docService}
}

type CreateConversationRequest struct {
	Title string `json:"title" binding:"max=128"`
}

type RenameConversationRequest struct {
	Title string `json:"title" binding:"required,max=128"`
}

type ChatRequest struct {
	ConversationID uint   `json:"conversation_id" binding:"required,gt=0"`
	Message        string `json:"message" binding:"required"`
	DocumentIDs    []uint `json:"document_ids"`
}

func (h *RagChatHandler) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	conv, err := h.chatService.CreateConversation(req.Title)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create conversation failed")
		return
	}
	response.OK(c, conv)
}

func (h *RagChatHandler) ListConversations(c *gin.Context) {
	convs, err := h.chatService.ListConversations()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		return
	}
	response.OK(c, convs)
}

func (h *RagChatHandler) GetConversation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	detail, err := h.chatService.GetConversation(id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get conversation failed")
		}
		return
	}
	response.OK(c, detail)
}

func (h *RagChatHandler) RenameConversation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if err := h.chatService.RenameConversation(id, req.Title); err != nil {
		switch {
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "title must not be empty")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "rename conversation failed")
		}
		return
	}
	response.OK(c, gin.H{"id": id, "title": req.Title})
}

func (h *RagChatHandler) DeleteConversation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	if err := h.chatService.DeleteConversation(id); err != nil {
		switch {
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete conversation failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_conversation_id": id})
}

// ToggleSaved pins or unpins a conversation. Pinned conversations survive
// the retention sweep regardless of age.
func (h *RagChatHandler) ToggleSaved(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	saved, err := h.chatService.ToggleSaved(id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "toggle saved failed")
		}
		return
	}
	response.OK(c, gin.H{"id": id, "saved": saved})
}

// ListReadyDocuments returns documents that finished ingestion and can be
// selected as chat context.
func (h *RagChatHandler) ListReadyDocuments(c *gin.Context) {
	purpose := c.Query("purpose")
	if purpose == "" {
		purpose = model.PurposeRAGSession
	}
	docs, err := h.docService.ListReady(purpose)
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

func (h *RagChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	result, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		DocumentIDs:    req.DocumentIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		case errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrMessageEnqueue):
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "chat failed")
		}
		return
	}
	response.OK(c, result)
}
