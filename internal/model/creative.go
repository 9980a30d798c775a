package model

// CreativeType describes the media format of a creative.
type CreativeType string

const (
	CreativeTypeImage    CreativeType = "image"
	CreativeTypeVideo    CreativeType = "video"
	CreativeTypeText     CreativeType = "text"
	CreativeTypeCarousel CreativeType = "carousel"
)

// ControlVariant is the label of the first-created variant of a product. When
// splits are otherwise symmetric the control receives the largest share.
const ControlVariant = "A"

// Creative is one A/B variant of ad content for exactly one product.
// Variant labels are unique within a product's variant set.
type Creative struct {
	ID           string       `json:"creative_id"`
	ProductID    string       `json:"product_id"`
	VariantLabel string       `json:"variant_id"`
	Type         CreativeType `json:"creative_type"`
	Headline     string       `json:"headline"`
	BodyText     string       `json:"body_text"`
	CallToAction string       `json:"call_to_action"`
	AssetURL     string       `json:"asset_url,omitempty"`
}

// IsControl reports whether the creative is its product's control variant.
func (c Creative) IsControl() bool {
	return c.VariantLabel == ControlVariant
}
