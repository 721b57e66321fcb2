package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/api/response"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ConversationHandler handles conversation endpoints
type ConversationHandler struct {
	conversationService *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// Create saves a conversation
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.ConversationCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	conv, err := h.conversationService.Create(r.Context(), input.ToConversation())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, conv)
}

// List returns the user's conversations, newest first
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := service.DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			response.BadRequest(w, map[string]string{"limit": "must be a positive integer"})
			return
		}
		limit = v
	}

	conversations, err := h.conversationService.List(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, conversations)
}

// Get returns a single conversation
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := h.conversationService.Get(r.Context(), chi.URLParam(r, "userID"), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, conv)
}

// Update replaces the messages of a conversation
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var input domain.ConversationUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	conv, err := h.conversationService.Update(r.Context(), chi.URLParam(r, "userID"), id, domain.ToMessages(input.Messages))
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, conv)
}

// Delete removes a conversation
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.conversationService.Delete(r.Context(), chi.URLParam(r, "userID"), id); err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Conversation deleted successfully"})
}

func conversationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		response.BadRequest(w, map[string]string{"conversation_id": "must be an integer"})
		return 0, false
	}
	if id < 0 {
		response.BadRequest(w, map[string]string{"conversation_id": "must be greater than or equal to 0"})
		return 0, false
	}
	return id, true
}

func validationErrors(err error) any {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	fields := make(map[string]string, len(ve))
	for _, e := range ve {
		// Drop the struct name from "ConversationCreate.messages[0].role"
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		switch e.Tag() {
		case "required":
			fields[field] = "required"
		case "gte":
			fields[field] = "must be greater than or equal to " + e.Param()
		case "max":
			fields[field] = "must be at most " + e.Param() + " characters"
		default:
			fields[field] = "validation failed on " + e.Tag()
		}
	}
	return fields
}

func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var storeErr *domain.StoreError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, validationErr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "Conversation not found")
	case errors.As(err, &storeErr):
		log.Error().Err(storeErr.Err).Str("op", storeErr.Op).Msg("store operation failed")
		response.InternalError(w, storeErr.Error())
	default:
		log.Error().Err(err).Msg("unexpected error")
		response.InternalError(w, err.Error())
	}
}
