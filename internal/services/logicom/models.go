package logicom

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Credentials identify the storefront to the supplier API.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessTokenKey string
	CustomerID     string
	BaseURL        string
}

type StatusCode int

const StatusSuccess StatusCode = 1

// Response is the envelope every data endpoint returns.
type Response struct {
	StatusCode StatusCode      `json:"StatusCode"`
	Status     string          `json:"Status"`
	Message    json.RawMessage `json:"Message"`
}

func (r *Response) OK() bool {
	return r.StatusCode == StatusSuccess
}

// FlexString accepts JSON strings, numbers, booleans and null. The supplier
// is inconsistent about quoting scalar fields.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if bytes.Equal(data, []byte("true")) {
		*f = "1"
		return nil
	}
	if bytes.Equal(data, []byte("false")) {
		*f = "0"
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

func (f FlexString) Empty() bool {
	return f.String() == ""
}

// Float parses the value; ok is false for blanks and anything that is not a
// finite number.
func (f FlexString) Float() (float64, bool) {
	s := f.String()
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Int parses whole numbers, truncating decimal notation like "12.0".
func (f FlexString) Int() (int, bool) {
	s := f.String()
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	v, ok := f.Float()
	if !ok {
		return 0, false
	}
	return int(v), true
}

type Brand struct {
	Brand FlexString `json:"Brand"`
}

// Category is one node of the supplier's category tree.
type Category struct {
	ID            FlexString `json:"Id"`
	Name          FlexString `json:"Name"`
	Subcategories []Category `json:"Subcategories,omitempty"`
}

type Product struct {
	SKU            FlexString      `json:"SKU"`
	Name           FlexString      `json:"Name"`
	Description    FlexString      `json:"Description"`
	Manufacturer   FlexString      `json:"Manufacturer"`
	Category       FlexString      `json:"Category"`
	IsESD          FlexString      `json:"IsESD"`
	IsEUItem       FlexString      `json:"IsEUItem"`
	Barcode        FlexString      `json:"Barcode"`
	Price          Price           `json:"Price"`
	VolumePrice    []VolumePrice   `json:"VolumePrice,omitempty"`
	Variants       []Variant       `json:"Variants,omitempty"`
	IntelPoints    FlexString      `json:"IntelPoints"`
	Warranty       FlexString      `json:"Warranty"`
	Specifications []Specification `json:"Specifications"`
	Inventory      Inventory       `json:"Inventory"`
	Images         []string        `json:"Images"`
}

type Price struct {
	PriceExclVAT FlexString `json:"PriceExclVAT"`
	SpecialPrice FlexString `json:"SpecialPrice,omitempty"`
	StartDate    FlexString `json:"StartDate,omitempty"`
	EndDate      FlexString `json:"EndDate,omitempty"`
	VAT          FlexString `json:"VAT"`
	RecycleTax   FlexString `json:"RecycleTax"`
	Currency     FlexString `json:"Currency"`
}

type VolumePrice struct {
	Quantity        FlexString `json:"Quantity"`
	Price           FlexString `json:"Price"`
	DiscountPercent FlexString `json:"Discount %"`
}

type Variant struct {
	ID        FlexString `json:"Id"`
	Title     FlexString `json:"Title"`
	Price     FlexString `json:"Price"`
	ListPrice FlexString `json:"ListPrice"`
	Inventory FlexString `json:"Inventory"`
	Barcodes  FlexString `json:"Barcodes"`
}

type Specification struct {
	Name  FlexString `json:"Name"`
	Value FlexString `json:"Value"`
}

type Inventory struct {
	Quantity FlexString     `json:"Quantity"`
	PO       *PurchaseOrder `json:"PO,omitempty"`
}

type PurchaseOrder struct {
	Quantity       FlexString `json:"Quantity"`
	PODeliveryDate FlexString `json:"PODeliveryDate"`
}
