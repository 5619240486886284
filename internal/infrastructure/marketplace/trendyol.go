package marketplace

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/marketplace"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
	"github.com/semdin/sellerx-backend/internal/domain/store"
)

// maxResponseSize is the maximum allowed response size from the Trendyol API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// DefaultBaseURL is the production Trendyol API gateway
const DefaultBaseURL = "https://apigw.trendyol.com"

// TrendyolGateway implements the marketplace Gateway against the Trendyol
// seller API. Auth is HTTP Basic over the store's API key pair; the seller
// identifies itself through the User-Agent header as well.
type TrendyolGateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTrendyolGateway creates a gateway for the given API base URL
func NewTrendyolGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *TrendyolGateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TrendyolGateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchOrders retrieves one page of the order feed for the given window
func (g *TrendyolGateway) FetchOrders(ctx context.Context, creds *store.TrendyolCredentials, window marketplace.Window, page, size int) (*marketplace.OrderPage, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	query.Set("startDate", strconv.FormatInt(window.Start.UnixMilli(), 10))
	query.Set("endDate", strconv.FormatInt(window.End.UnixMilli(), 10))

	endpoint := fmt.Sprintf("%s/integration/order/sellers/%s/orders?%s",
		g.baseURL, url.PathEscape(creds.SellerID), query.Encode())

	body, err := g.doRequest(ctx, creds, endpoint)
	if err != nil {
		return nil, err
	}

	var resp trendyolOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed order response: %v", shared.ErrUpstreamFetch, err)
	}

	result := &marketplace.OrderPage{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Orders:     make([]marketplace.OrderPayload, 0, len(resp.Content)),
	}
	for _, content := range resp.Content {
		result.Orders = append(result.Orders, convertOrderContent(content))
	}
	return result, nil
}

// FetchSettlements retrieves one page of the Sale or Return settlement feed
func (g *TrendyolGateway) FetchSettlements(ctx context.Context, creds *store.TrendyolCredentials, kind marketplace.SettlementKind, window marketplace.Window, page, size int) (*marketplace.SettlementPage, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("transactionType", string(kind))
	query.Set("startDate", strconv.FormatInt(window.Start.UnixMilli(), 10))
	query.Set("endDate", strconv.FormatInt(window.End.UnixMilli(), 10))
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	endpoint := fmt.Sprintf("%s/integration/finance/che/sellers/%s/settlements?%s",
		g.baseURL, url.PathEscape(creds.SellerID), query.Encode())

	body, err := g.doRequest(ctx, creds, endpoint)
	if err != nil {
		return nil, err
	}

	var resp trendyolSettlementResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed settlement response: %v", shared.ErrUpstreamFetch, err)
	}

	result := &marketplace.SettlementPage{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Records:    make([]marketplace.SettlementPayload, 0, len(resp.Content)),
	}
	for _, item := range resp.Content {
		result.Records = append(result.Records, marketplace.SettlementPayload{
			ID:               item.ID,
			OrderNumber:      item.OrderNumber,
			PackageID:        item.ShipmentPackageID,
			Barcode:          item.Barcode,
			TransactionType:  item.TransactionType,
			Debt:             item.Debt,
			Credit:           item.Credit,
			CommissionRate:   item.CommissionRate,
			CommissionAmount: item.CommissionAmount,
			SellerRevenue:    item.SellerRevenue,
			TransactionDate:  millisToTime(item.TransactionDate),
		})
	}
	return result, nil
}

// FetchProducts retrieves one page of the seller's product catalog
func (g *TrendyolGateway) FetchProducts(ctx context.Context, creds *store.TrendyolCredentials, page, size int) (*marketplace.ProductPage, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	endpoint := fmt.Sprintf("%s/integration/product/sellers/%s/products?%s",
		g.baseURL, url.PathEscape(creds.SellerID), query.Encode())

	body, err := g.doRequest(ctx, creds, endpoint)
	if err != nil {
		return nil, err
	}

	var resp trendyolProductResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed product response: %v", shared.ErrUpstreamFetch, err)
	}

	result := &marketplace.ProductPage{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Products:   make([]marketplace.ProductPayload, 0, len(resp.Content)),
	}
	for _, content := range resp.Content {
		result.Products = append(result.Products, marketplace.ProductPayload{
			Barcode:           content.Barcode,
			Title:             content.Title,
			CommissionRate:    content.CommissionRate,
			DimensionalWeight: content.DimensionalWeight,
		})
	}
	return result, nil
}

// doRequest performs an authenticated GET against the Trendyol API
func (g *TrendyolGateway) doRequest(ctx context.Context, creds *store.TrendyolCredentials, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("trendyol: failed to create request: %w", err)
	}

	token := base64.StdEncoding.EncodeToString([]byte(creds.APIKey + ":" + creds.APISecret))
	req.Header.Set("Authorization", "Basic "+token)
	req.Header.Set("User-Agent", creds.SellerID+" - SelfIntegration")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("trendyol: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		g.logger.Warn("trendyol request failed",
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: HTTP %d", shared.ErrUpstreamFetch, resp.StatusCode)
	}

	return body, nil
}

// convertOrderContent maps one order package of the feed to the domain payload
func convertOrderContent(content trendyolOrderContent) marketplace.OrderPayload {
	status := content.Status
	if status == "" {
		status = content.ShipmentPackageStatus
	}

	payload := marketplace.OrderPayload{
		OrderNumber:   content.OrderNumber,
		PackageNo:     content.ID,
		OrderDate:     millisToTime(content.OriginShipmentDate),
		GrossAmount:   content.GrossAmount,
		TotalDiscount: content.TotalDiscount,
		Status:        status,
		Lines:         make([]marketplace.LinePayload, 0, len(content.Lines)),
	}
	for _, line := range content.Lines {
		payload.Lines = append(payload.Lines, marketplace.LinePayload{
			Barcode:           line.Barcode,
			ProductName:       line.ProductName,
			Quantity:          line.Quantity,
			UnitPriceOrder:    line.Amount,
			UnitPriceDiscount: line.Discount,
			VatBaseAmount:     line.VatBaseAmount,
			Price:             line.Price,
		})
	}
	return payload
}

// Ensure TrendyolGateway implements the marketplace Gateway
var _ marketplace.Gateway = (*TrendyolGateway)(nil)
