package models

type Product struct {
	ID             string          `json:"_id"`
	Type           string          `json:"_type"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Slug           Slug            `json:"slug"`
	Description    *string         `json:"description,omitempty"`
	Manufacturer   *string         `json:"manufacturer,omitempty"`
	Category       *Reference      `json:"category,omitempty"`
	IsESD          bool            `json:"isESD"`
	IsEUItem       bool            `json:"isEUItem"`
	Barcode        *string         `json:"barcode,omitempty"`
	Price          Price           `json:"price"`
	VolumePricing  []VolumePrice   `json:"volumePricing,omitempty"`
	Variants       []Variant       `json:"variants,omitempty"`
	IntelPoints    *float64        `json:"intelPoints,omitempty"`
	Warranty       *string         `json:"warranty,omitempty"`
	Specifications []Specification `json:"specifications"`
	Inventory      Inventory       `json:"inventory"`
	Images         []Image         `json:"images,omitempty"`
	LastUpdated    string          `json:"lastUpdated"`
}

// Price holds supplier prices and the storefront's derived sale prices.
// SalePrice and SpecialSalePrice are always PriceExclVAT*1.2 and
// SpecialPrice*1.2 and are absent whenever their source is.
type Price struct {
	PriceExclVAT     *float64  `json:"priceExclVAT,omitempty"`
	SalePrice        *float64  `json:"salePrice,omitempty"`
	SpecialPrice     *float64  `json:"specialPrice,omitempty"`
	SpecialSalePrice *float64  `json:"specialSalePrice,omitempty"`
	StartDate        *string   `json:"startDate,omitempty"`
	EndDate          *string   `json:"endDate,omitempty"`
	VAT              *float64  `json:"vat,omitempty"`
	RecycleTax       *float64  `json:"recycleTax,omitempty"`
	Currency         *Currency `json:"currency,omitempty"`
}

type VolumePrice struct {
	Key             string   `json:"_key"`
	Quantity        *int     `json:"quantity,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	SalePrice       *float64 `json:"salePrice,omitempty"`
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
}

type Variant struct {
	Key          string   `json:"_key"`
	ID           *string  `json:"id,omitempty"`
	Title        *string  `json:"title,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	SalePrice    *float64 `json:"salePrice,omitempty"`
	ListPrice    *float64 `json:"listPrice,omitempty"`
	Inventory    *int     `json:"inventory,omitempty"`
	OurInventory *int     `json:"ourInventory,omitempty"`
	Barcodes     *string  `json:"barcodes,omitempty"`
}

type Specification struct {
	Key   string  `json:"_key"`
	Name  *string `json:"name,omitempty"`
	Value *string `json:"value,omitempty"`
}

// Inventory mirrors the supplier stock. OurInventory is the half of Quantity
// the storefront is allowed to sell and is recomputed on every sync.
type Inventory struct {
	Quantity       *int            `json:"quantity,omitempty"`
	OurInventory   *int            `json:"ourInventory,omitempty"`
	PurchaseOrders []PurchaseOrder `json:"purchaseOrders,omitempty"`
}

type PurchaseOrder struct {
	Key          string  `json:"_key"`
	Quantity     *int    `json:"quantity,omitempty"`
	DeliveryDate *string `json:"deliveryDate,omitempty"`
}

type Image struct {
	Key   string    `json:"_key"`
	Type  string    `json:"_type"`
	Asset Reference `json:"asset"`
}

func NewImage(key, assetID string) Image {
	return Image{
		Key:   key,
		Type:  "image",
		Asset: Reference{Type: "reference", Ref: assetID},
	}
}
