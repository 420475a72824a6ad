package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jayrakel/sacco-ledger/internal/adapter/http/dto"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// JournalHandler handles journal posting HTTP requests.
type JournalHandler struct {
	postingUC *usecase.PostingUseCase
	mappingUC *usecase.MappingUseCase
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(postingUC *usecase.PostingUseCase, mappingUC *usecase.MappingUseCase) *JournalHandler {
	return &JournalHandler{postingUC: postingUC, mappingUC: mappingUC}
}

// Post posts a simple two-line entry.
func (h *JournalHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.Post(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to post entry")
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// PostEvent posts a mapped business event.
func (h *JournalHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.PostEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.PostEvent(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to post event")
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// PostLines posts a manual multi-line entry.
func (h *JournalHandler) PostLines(w http.ResponseWriter, r *http.Request) {
	var req dto.PostLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.PostLines(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to post entry")
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry by its transaction reference.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "missing reference", "")
		return
	}

	entry, err := h.postingUC.GetEntry(r.Context(), reference)
	if err != nil {
		writeDomainError(w, err, "failed to get entry")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Reverse posts a reversing entry for a posted reference.
func (h *JournalHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "missing reference", "")
		return
	}

	var req dto.ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.postingUC.Reverse(r.Context(), usecase.ReverseInput{
		Reference:         reference,
		ReversalReference: req.ReversalReference,
		Description:       req.Description,
	})
	if err != nil {
		writeDomainError(w, err, "failed to reverse entry")
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// CreateMapping registers an event-to-account mapping.
func (h *JournalHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	mapping, err := h.mappingUC.CreateMapping(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err, "failed to create mapping")
		return
	}

	writeJSON(w, http.StatusCreated, dto.MappingFromDomain(mapping))
}

// GetMapping retrieves the mapping for an event name.
func (h *JournalHandler) GetMapping(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	if event == "" {
		writeError(w, http.StatusBadRequest, "missing event name", "")
		return
	}

	mapping, err := h.mappingUC.GetMapping(r.Context(), event)
	if err != nil {
		writeDomainError(w, err, "failed to get mapping")
		return
	}

	writeJSON(w, http.StatusOK, dto.MappingFromDomain(mapping))
}

// ListMappings lists all configured mappings.
func (h *JournalHandler) ListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.mappingUC.ListMappings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list mappings", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MappingsFromDomain(mappings))
}
