package dto

// LotDateFormat is the wire format for cost lot acquisition dates. Lots are
// keyed by business day, so no time-of-day component is accepted.
const LotDateFormat = "2006-01-02"

// TrendyolCredentialsRequest carries the API access data for a store
type TrendyolCredentialsRequest struct {
	APIKey          string `json:"api_key" binding:"required"`
	APISecret       string `json:"api_secret" binding:"required"`
	SellerID        string `json:"seller_id" binding:"required"`
	IntegrationCode string `json:"integration_code"`
	Token           string `json:"token"`
}

// CreateStoreRequest creates a store with its marketplace credentials
type CreateStoreRequest struct {
	Name        string                     `json:"name" binding:"required,max=200"`
	Credentials TrendyolCredentialsRequest `json:"credentials" binding:"required"`
}

// RenameStoreRequest changes a store's display name
type RenameStoreRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// AddLotRequest appends or merges a cost lot on a product
type AddLotRequest struct {
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	UnitCost string `json:"unit_cost" binding:"required"`
	VatRate  int    `json:"vat_rate" binding:"gte=0"`
}

// EditLotRequest replaces the lot identified by its acquisition date
type EditLotRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	UnitCost string `json:"unit_cost" binding:"required"`
	VatRate  int    `json:"vat_rate" binding:"gte=0"`
}

// ResyncRequest triggers cost resynchronization from a cutoff day.
// An empty From resyncs the full order history.
type ResyncRequest struct {
	From string `json:"from" binding:"omitempty,datetime=2006-01-02"`
}

// StatsQuery selects the reporting period, either by preset or by an
// explicit custom range. Custom ranges need both bounds.
type StatsQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=today 7d 30d mtd"`
	From   string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}
