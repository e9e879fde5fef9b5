package models

// Document types as stored in the catalog document store.
const (
	TypeBrand    = "brand"
	TypeCategory = "category"
	TypeProduct  = "product"
)

type Slug struct {
	Type    string `json:"_type"`
	Current string `json:"current"`
}

func NewSlug(current string) Slug {
	return Slug{Type: "slug", Current: current}
}

// Reference points at another document by its local id.
type Reference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

func NewReference(id string) *Reference {
	if id == "" {
		return nil
	}
	return &Reference{Type: "reference", Ref: id}
}

type Brand struct {
	ID   string `json:"_id"`
	Type string `json:"_type"`
	Name string `json:"name"`
	Slug Slug   `json:"slug"`
}

type Category struct {
	ID             string     `json:"_id"`
	Type           string     `json:"_type"`
	SupplierID     string     `json:"Id"`
	Name           string     `json:"name"`
	Slug           Slug       `json:"slug"`
	ParentCategory *Reference `json:"parentCategory,omitempty"`
}

// ParentID returns the referenced parent's local id, or "" for a root category.
func (c *Category) ParentID() string {
	if c.ParentCategory == nil {
		return ""
	}
	return c.ParentCategory.Ref
}

// ImportStats counts the outcome of one entity-type pass.
type ImportStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Writes reports how many documents the pass queued for writing.
func (s ImportStats) Writes() int {
	return s.Created + s.Updated
}
