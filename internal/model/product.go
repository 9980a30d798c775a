package model

// PriorityTier buckets products by expected conversion strength. Tier
// ordering is total and fixed: high > medium > low. It is never inferred from
// score ranges.
type PriorityTier string

const (
	TierHigh   PriorityTier = "high"
	TierMedium PriorityTier = "medium"
	TierLow    PriorityTier = "low"
)

// Rank returns the tier's position in the fixed ordering, 0 being strongest.
// Unknown tiers sort last.
func (t PriorityTier) Rank() int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	case TierLow:
		return 2
	}
	return 3
}

// Product is one catalog item eligible for advertising.
type Product struct {
	ID            string  `json:"product_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	ImageURL      string  `json:"image_url,omitempty"`
	StockQuantity int     `json:"stock_quantity"`
}

// ScoreRange records the conversion-score band that placed products into a
// tier. Provenance only: allocation arithmetic never reads it.
type ScoreRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// ProductGroup is a priority tier holding an ordered set of products.
// Tiers are mutually exclusive product-id sets.
type ProductGroup struct {
	Tier       PriorityTier `json:"priority"`
	Products   []Product    `json:"products"`
	ScoreRange ScoreRange   `json:"score_range"`
}

// ProductIDs returns the ids of the group's products in order.
func (g ProductGroup) ProductIDs() []string {
	ids := make([]string, 0, len(g.Products))
	for _, p := range g.Products {
		ids = append(ids, p.ID)
	}
	return ids
}
