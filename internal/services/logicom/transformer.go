package logicom

import (
	"fmt"
	"strings"
	"time"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/slug"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// saleMultiplier is the storefront markup applied to every supplier price.
var saleMultiplier = decimal.RequireFromString("1.2")

const (
	supplierDateLayout = "02-01-2006"
	storeDateLayout    = "2006-01-02"
	lastUpdatedLayout  = "2006-01-02T15:04:05.000Z07:00"
)

type Transformer struct {
	logger *logger.Logger
	newKey func() string
	now    func() time.Time
}

func NewTransformer(logger *logger.Logger) *Transformer {
	return &Transformer{
		logger: logger,
		newKey: newListKey,
		now:    time.Now,
	}
}

// TransformOptions carries what the transformer cannot know on its own.
type TransformOptions struct {
	// ExistingID is the local id already holding this SKU, if any.
	ExistingID string
	// CategoryID is the local category whose name matches the product's
	// supplier category, if any.
	CategoryID string
}

// TransformProduct converts a supplier product to our catalog document. Images
// are left empty; they are ingested separately.
func (t *Transformer) TransformProduct(p *Product, opts TransformOptions) (*models.Product, error) {
	sku := p.SKU.String()
	if sku == "" {
		return nil, ErrMissingSKU
	}

	id := opts.ExistingID
	if id == "" {
		id = slug.ProductID(sku)
	}

	product := &models.Product{
		ID:             id,
		Type:           models.TypeProduct,
		SKU:            sku,
		Name:           p.Name.String(),
		Slug:           models.NewSlug(slug.Make(p.Name.String())),
		Description:    optionalString(p.Description),
		Manufacturer:   optionalString(p.Manufacturer),
		Category:       models.NewReference(opts.CategoryID),
		IsESD:          p.IsESD.String() == "1",
		IsEUItem:       p.IsEUItem.String() == "1",
		Barcode:        optionalString(p.Barcode),
		Price:          t.transformPrice(sku, p.Price),
		IntelPoints:    optionalFloat(p.IntelPoints),
		Warranty:       optionalString(p.Warranty),
		Specifications: t.transformSpecifications(p.Specifications),
		Inventory:      t.transformInventory(sku, p.Inventory),
		LastUpdated:    t.now().UTC().Format(lastUpdatedLayout),
	}

	if p.VolumePrice != nil {
		product.VolumePricing = t.transformVolumePricing(p.VolumePrice)
	}
	if p.Variants != nil {
		product.Variants = t.transformVariants(p.Variants)
	}

	return product, nil
}

// ImageKey is the list key of a product's image at a given position. It is
// deterministic so unchanged images compare equal across syncs.
func ImageKey(index int, sku string) string {
	prefix := []rune(sku)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("img-%d-%s", index, string(prefix))
}

func (t *Transformer) transformPrice(sku string, p Price) models.Price {
	price := models.Price{
		PriceExclVAT: optionalFloat(p.PriceExclVAT),
		SpecialPrice: optionalFloat(p.SpecialPrice),
		VAT:          optionalFloat(p.VAT),
		RecycleTax:   optionalFloat(p.RecycleTax),
		StartDate:    t.formatDate(sku, "StartDate", p.StartDate),
		EndDate:      t.formatDate(sku, "EndDate", p.EndDate),
	}
	price.SalePrice = salePrice(price.PriceExclVAT)
	price.SpecialSalePrice = salePrice(price.SpecialPrice)

	if !p.Currency.Empty() {
		currency, err := models.ParseCurrency(p.Currency.String())
		if err != nil {
			t.logger.Warn("Product %s: %v %q, currency omitted", sku, err, p.Currency.String())
		} else {
			price.Currency = &currency
		}
	}
	return price
}

func (t *Transformer) transformVolumePricing(tiers []VolumePrice) []models.VolumePrice {
	out := make([]models.VolumePrice, len(tiers))
	for i, vp := range tiers {
		price := optionalFloat(vp.Price)
		out[i] = models.VolumePrice{
			Key:             t.newKey(),
			Quantity:        optionalInt(vp.Quantity),
			Price:           price,
			SalePrice:       salePrice(price),
			DiscountPercent: optionalFloat(vp.DiscountPercent),
		}
	}
	return out
}

func (t *Transformer) transformVariants(variants []Variant) []models.Variant {
	out := make([]models.Variant, len(variants))
	for i, v := range variants {
		price := optionalFloat(v.Price)
		inventory := optionalInt(v.Inventory)
		out[i] = models.Variant{
			Key:          t.newKey(),
			ID:           optionalString(v.ID),
			Title:        optionalString(v.Title),
			Price:        price,
			SalePrice:    salePrice(price),
			ListPrice:    optionalFloat(v.ListPrice),
			Inventory:    inventory,
			OurInventory: ourInventory(inventory),
			Barcodes:     optionalString(v.Barcodes),
		}
	}
	return out
}

func (t *Transformer) transformSpecifications(specs []Specification) []models.Specification {
	out := make([]models.Specification, len(specs))
	for i, s := range specs {
		out[i] = models.Specification{
			Key:   t.newKey(),
			Name:  optionalString(s.Name),
			Value: optionalString(s.Value),
		}
	}
	return out
}

func (t *Transformer) transformInventory(sku string, inv Inventory) models.Inventory {
	quantity := optionalInt(inv.Quantity)
	out := models.Inventory{
		Quantity:     quantity,
		OurInventory: ourInventory(quantity),
	}
	if inv.PO != nil {
		out.PurchaseOrders = []models.PurchaseOrder{{
			Key:          t.newKey(),
			Quantity:     optionalInt(inv.PO.Quantity),
			DeliveryDate: t.formatDate(sku, "PODeliveryDate", inv.PO.PODeliveryDate),
		}}
	}
	return out
}

// formatDate converts the supplier's DD-MM-YYYY into YYYY-MM-DD. Anything
// that does not parse is dropped.
func (t *Transformer) formatDate(sku, field string, value FlexString) *string {
	raw := value.String()
	if raw == "" {
		return nil
	}
	if i := strings.IndexAny(raw, " T"); i > 0 {
		raw = raw[:i]
	}
	d, err := time.Parse(supplierDateLayout, raw)
	if err != nil {
		t.logger.Warn("Product %s: invalid %s %q, omitted", sku, field, value.String())
		return nil
	}
	s := d.Format(storeDateLayout)
	return &s
}

// salePrice applies the markup. A missing source yields a missing sale price;
// zero is a legitimate price and stays zero.
func salePrice(source *float64) *float64 {
	if source == nil {
		return nil
	}
	v := decimal.NewFromFloat(*source).Mul(saleMultiplier).InexactFloat64()
	return &v
}

// ourInventory is the sellable half of a supplier quantity, rounded down.
func ourInventory(quantity *int) *int {
	if quantity == nil {
		return nil
	}
	q := *quantity
	half := q / 2
	if q < 0 && q%2 != 0 {
		half--
	}
	return &half
}

func optionalString(v FlexString) *string {
	s := v.String()
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(v FlexString) *float64 {
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

func optionalInt(v FlexString) *int {
	n, ok := v.Int()
	if !ok {
		return nil
	}
	return &n
}

func newListKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
