package store

import (
	"encoding/json"
	"fmt"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// MarketplaceType identifies which marketplace a credential set belongs to.
type MarketplaceType string

const (
	MarketplaceTrendyol MarketplaceType = "trendyol"
)

// Credentials is the sum type for marketplace credentials. The concrete
// variant is selected by the "type" discriminant in the stored JSON.
type Credentials interface {
	Marketplace() MarketplaceType
	Validate() error
}

// TrendyolCredentials holds the API access data for a Trendyol seller account.
type TrendyolCredentials struct {
	APIKey          string `json:"apiKey"`
	APISecret       string `json:"apiSecret"`
	SellerID        string `json:"sellerId"`
	IntegrationCode string `json:"integrationCode,omitempty"`
	Token           string `json:"token,omitempty"`
}

// Marketplace returns the discriminant for Trendyol credentials
func (c *TrendyolCredentials) Marketplace() MarketplaceType {
	return MarketplaceTrendyol
}

// Validate checks that the fields required for API access are present
func (c *TrendyolCredentials) Validate() error {
	if c.APIKey == "" || c.APISecret == "" || c.SellerID == "" {
		return shared.ErrCredentialsMissing
	}
	return nil
}

// credentialsEnvelope carries the discriminant alongside the variant payload
type credentialsEnvelope struct {
	Type MarketplaceType `json:"type"`
}

// EncodeCredentials serializes credentials with their type discriminant
func EncodeCredentials(c Credentials) ([]byte, error) {
	if c == nil {
		return nil, shared.ErrCredentialsMissing
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	typeField, err := json.Marshal(c.Marketplace())
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	doc["type"] = typeField
	return json.Marshal(doc)
}

// DecodeCredentials deserializes credentials, dispatching on the "type"
// discriminant. Unknown types are rejected rather than silently dropped.
func DecodeCredentials(data []byte) (Credentials, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var env credentialsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	switch env.Type {
	case MarketplaceTrendyol:
		var c TrendyolCredentials
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode trendyol credentials: %w", err)
		}
		return &c, nil
	default:
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("unsupported marketplace type: %q", env.Type))
	}
}
