package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/prestamix/lending-engine/internal/domain"
	"github.com/prestamix/lending-engine/internal/repository"
	"github.com/prestamix/lending-engine/internal/service"
	"github.com/prestamix/lending-engine/pkg/response"
	"github.com/prestamix/lending-engine/pkg/utils"
)

type WalletHandler struct {
	wallets   *service.WalletService
	transfers *service.TransferService
	history   *service.HistoryService
	validator *validator.Validate
}

func NewWalletHandler(wallets *service.WalletService, transfers *service.TransferService, history *service.HistoryService) *WalletHandler {
	return &WalletHandler{
		wallets:   wallets,
		transfers: transfers,
		history:   history,
		validator: validator.New(),
	}
}

// EnsureContainer handles POST /api/v1/containers
func (h *WalletHandler) EnsureContainer(w http.ResponseWriter, r *http.Request) {
	var request domain.EnsureContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	container, err := h.wallets.EnsureContainer(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, container)
}

// GetContainer handles GET /api/v1/containers/{containerId}
func (h *WalletHandler) GetContainer(w http.ResponseWriter, r *http.Request) {
	containerID, err := uuid.Parse(mux.Vars(r)["containerId"])
	if err != nil {
		response.BadRequest(w, "Invalid container id", err)
		return
	}

	container, err := h.wallets.GetContainer(r.Context(), containerID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, container)
}

// PostTransaction handles POST /api/v1/containers/{containerId}/transactions
func (h *WalletHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	containerID, err := uuid.Parse(mux.Vars(r)["containerId"])
	if err != nil {
		response.BadRequest(w, "Invalid container id", err)
		return
	}

	var request domain.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	posted, err := h.wallets.Post(r.Context(), containerID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, posted)
}

// Transfer handles POST /api/v1/transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var request domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.transfers.Transfer(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// GetHistory handles GET /api/v1/containers/{containerId}/transactions
func (h *WalletHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	containerID, err := uuid.Parse(mux.Vars(r)["containerId"])
	if err != nil {
		response.BadRequest(w, "Invalid container id", err)
		return
	}

	query := r.URL.Query()
	filter := repository.HistoryFilter{}

	if types := query.Get("type"); types != "" {
		filter.Types = strings.Split(types, ",")
	}
	if from, ok := utils.ParseDate(query.Get("from")); ok {
		filter.From = &from
	}
	if to, ok := utils.ParseDate(query.Get("to")); ok {
		filter.To = &to
	}

	page, perPage := utils.ParsePagination(query)

	history, err := h.history.GetHistory(r.Context(), containerID, filter, page, perPage)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, history)
}

// ListCategories handles GET /api/v1/safes/{containerId}/categories
func (h *WalletHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	containerID, err := uuid.Parse(mux.Vars(r)["containerId"])
	if err != nil {
		response.BadRequest(w, "Invalid container id", err)
		return
	}

	categories, err := h.wallets.ListCategories(r.Context(), containerID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, categories)
}

// CreateCategory handles POST /api/v1/safes/{containerId}/categories
func (h *WalletHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	containerID, err := uuid.Parse(mux.Vars(r)["containerId"])
	if err != nil {
		response.BadRequest(w, "Invalid container id", err)
		return
	}

	var request domain.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	category, err := h.wallets.CreateCategory(r.Context(), containerID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, category)
}
