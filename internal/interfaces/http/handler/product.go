package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appcatalog "github.com/semdin/sellerx-backend/internal/application/catalog"
	"github.com/semdin/sellerx-backend/internal/domain/catalog"
	"github.com/semdin/sellerx-backend/internal/interfaces/http/dto"
)

// ProductHandler handles product listing and cost lot mutations
type ProductHandler struct {
	BaseHandler
	products *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// CostLotResponse is one entry of a product's lot ledger
type CostLotResponse struct {
	Date         string          `json:"date"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	VatRate      int             `json:"vat_rate"`
	UsedQuantity int             `json:"used_quantity"`
	Remaining    int             `json:"remaining"`
}

// ProductResponse is a product with its full lot ledger
type ProductResponse struct {
	ID             string            `json:"id"`
	Barcode        string            `json:"barcode"`
	Title          string            `json:"title"`
	CommissionRate decimal.Decimal   `json:"commission_rate"`
	Lots           []CostLotResponse `json:"lots"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID.String(),
		Barcode:        p.Barcode,
		Title:          p.Title,
		CommissionRate: p.CommissionRate,
		Lots:           make([]CostLotResponse, 0, len(p.Lots)),
	}
	for _, lot := range p.Lots {
		resp.Lots = append(resp.Lots, CostLotResponse{
			Date:         lot.AcquisitionDate.Format(dto.LotDateFormat),
			Quantity:     lot.Quantity,
			UnitCost:     lot.UnitCost,
			VatRate:      lot.VatRate,
			UsedQuantity: lot.UsedQuantity,
			Remaining:    lot.Remaining(),
		})
	}
	return resp
}

// List returns every product of a store
func (h *ProductHandler) List(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	products, err := h.products.ListProducts(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, toProductResponse(p))
	}
	h.Success(c, result)
}

// Get returns one product by barcode
func (h *ProductHandler) Get(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), storeID, c.Param("barcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toProductResponse(p))
}

// AddLot appends a cost lot, merging with an existing lot of the same day.
// The mutation triggers cost resynchronization from the lot's date.
func (h *ProductHandler) AddLot(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	var req dto.AddLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	date, unitCost, err := parseLotFields(req.Date, req.UnitCost)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	barcode := c.Param("barcode")
	if err := h.products.AddLot(c.Request.Context(), storeID, barcode, req.Quantity, unitCost, req.VatRate, date); err != nil {
		h.HandleError(c, err)
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), storeID, barcode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(p))
}

// EditLot replaces the lot identified by its acquisition date
func (h *ProductHandler) EditLot(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	var req dto.EditLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	date, unitCost, err := parseLotFields(c.Param("date"), req.UnitCost)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	barcode := c.Param("barcode")
	if err := h.products.EditLot(c.Request.Context(), storeID, barcode, date, req.Quantity, unitCost, req.VatRate); err != nil {
		h.HandleError(c, err)
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), storeID, barcode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(p))
}

// DeleteLot removes the lot identified by its acquisition date
func (h *ProductHandler) DeleteLot(c *gin.Context) {
	storeID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid store id")
		return
	}

	date, err := time.Parse(dto.LotDateFormat, c.Param("date"))
	if err != nil {
		h.BadRequest(c, "invalid lot date, expected YYYY-MM-DD")
		return
	}

	if err := h.products.DeleteLot(c.Request.Context(), storeID, c.Param("barcode"), date); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func parseLotFields(dateStr, unitCostStr string) (time.Time, decimal.Decimal, error) {
	date, err := time.Parse(dto.LotDateFormat, dateStr)
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	unitCost, err := decimal.NewFromString(unitCostStr)
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	return date, unitCost, nil
}
