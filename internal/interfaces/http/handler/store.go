package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/semdin/sellerx-backend/internal/domain/store"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/dto"
)

// StoreHandler handles store CRUD and credential management
type StoreHandler struct {
	BaseHandler
	stores store.Repository
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(stores store.Repository) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// StoreResponse is a store without its credential secrets
type StoreResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Marketplace string `json:"marketplace,omitempty"`
	SellerID    string `json:"seller_id,omitempty"`
}

func toStoreResponse(s *store.Store) StoreResponse {
	resp := StoreResponse{
		ID:   s.ID.String(),
		Name: s.Name,
	}
	if s.Credentials != nil {
		resp.Marketplace = string(s.Credentials.Marketplace())
	}
	if creds, err := s.TrendyolCredentials(); err == nil {
		resp.SellerID = creds.SellerID
	}
	return resp
}

// Create registers a new store with its marketplace credentials
func (h *StoreHandler) Create(c *gin.Context) {
	var req dto.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	s, err := store.NewStore(req.Name, credentialsFromRequest(req.Credentials))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.stores.Create(c.Request.Context(), s); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toStoreResponse(s))
}

// List returns all stores
func (h *StoreHandler) List(c *gin.Context) {
	stores, err := h.stores.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result := make([]StoreResponse, 0, len(stores))
	for _, s := range stores {
		result = append(result, toStoreResponse(s))
	}
	h.Success(c, result)
}

// Get returns one store by ID
func (h *StoreHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	s, err := h.stores.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStoreResponse(s))
}

// Rename changes a store's display name
func (h *StoreHandler) Rename(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	var req dto.RenameStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	s, err := h.stores.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := s.Rename(req.Name); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.stores.Update(c.Request.Context(), s); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStoreResponse(s))
}

// UpdateCredentials replaces a store's marketplace credentials
func (h *StoreHandler) UpdateCredentials(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	var req dto.TrendyolCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	s, err := h.stores.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := s.UpdateCredentials(credentialsFromRequest(req)); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.stores.Update(c.Request.Context(), s); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStoreResponse(s))
}

// Delete removes a store
func (h *StoreHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	if err := h.stores.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func credentialsFromRequest(req dto.TrendyolCredentialsRequest) *store.TrendyolCredentials {
	return &store.TrendyolCredentials{
		APIKey:          req.APIKey,
		APISecret:       req.APISecret,
		SellerID:        req.SellerID,
		IntegrationCode: req.IntegrationCode,
		Token:           req.Token,
	}
}
