package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalogsync/internal/docstore"
	"catalogsync/internal/models"
	"catalogsync/internal/services/logicom"
	"catalogsync/internal/slug"
)

// storedProduct is a product document paired with its SKU.
type storedProduct struct {
	SKU string
	Doc *docstore.Document
}

// volatileFields never count as a change: list keys are regenerated on every
// pass and lastUpdated is stamped on every transform.
var volatileFields = map[string]bool{"_key": true, "lastUpdated": true}

var productPolicy = Policy[storedProduct]{
	Stage: StageProducts,
	Key:   func(p storedProduct) string { return p.SKU },
	ID:    func(p storedProduct) string { return p.Doc.ID },
	Equal: func(existing, incoming storedProduct) bool {
		a, errA := comparableFields(existing.Doc.Data)
		b, errB := comparableFields(incoming.Doc.Data)
		return errA == nil && errB == nil && reflect.DeepEqual(a, b)
	},
}

// ImportProducts syncs the supplier's products in supplier order. Each
// product's images are ingested before it is compared with the stored copy.
func (o *Orchestrator) ImportProducts(ctx context.Context) (models.ImportStats, error) {
	log := o.logger.With("products")
	log.Info("Starting product import process...")

	docs, err := o.store.Fetch(ctx, docstore.Query{Type: models.TypeProduct})
	if err != nil {
		return models.ImportStats{}, err
	}
	existing := make([]storedProduct, 0, len(docs))
	existingIDs := make(map[string]string, len(docs))
	for i := range docs {
		var head struct {
			SKU string `json:"sku"`
		}
		if err := docs[i].Decode(&head); err != nil {
			return models.ImportStats{}, fmt.Errorf("failed to decode product %s: %w", docs[i].ID, err)
		}
		existing = append(existing, storedProduct{SKU: head.SKU, Doc: &docs[i]})
		if key := slug.NormalizeKey(head.SKU); key != "" {
			if _, dup := existingIDs[key]; !dup {
				existingIDs[key] = docs[i].ID
			}
		}
	}

	supplierProducts, err := o.supplier.GetProducts(ctx, o.opts.ProductFilters)
	if err != nil {
		return models.ImportStats{}, err
	}

	categories := newCategoryResolver(o.store)
	incoming := make([]storedProduct, 0, len(supplierProducts))
	var dropped []error
	seen := make(map[string]bool, len(supplierProducts))

	for i := range supplierProducts {
		p := &supplierProducts[i]
		sku := p.SKU.String()
		key := slug.NormalizeKey(sku)
		if key == "" {
			dropped = append(dropped, &ReconciliationError{Stage: StageProducts, Key: p.Name.String(), Reason: "product has no SKU"})
			continue
		}
		if seen[key] {
			dropped = append(dropped, &ReconciliationError{Stage: StageProducts, Key: sku, Reason: "duplicate natural key in this pass"})
			continue
		}
		seen[key] = true

		categoryID, err := categories.Resolve(ctx, p.Category.String())
		if err != nil {
			return models.ImportStats{}, err
		}

		product, err := o.transformer.TransformProduct(p, logicom.TransformOptions{
			ExistingID: existingIDs[key],
			CategoryID: categoryID,
		})
		if err != nil {
			dropped = append(dropped, &ReconciliationError{Stage: StageProducts, Key: sku, Reason: err.Error()})
			continue
		}
		if p.Category.String() != "" && categoryID == "" {
			log.Debug("Product %s: no category named %q", sku, p.Category.String())
		}

		product.Images = o.images.IngestAll(ctx, p.Images, sku)

		doc, err := docstore.NewDocument(product)
		if err != nil {
			dropped = append(dropped, &ReconciliationError{Stage: StageProducts, Key: sku, Reason: err.Error()})
			continue
		}
		incoming = append(incoming, storedProduct{SKU: sku, Doc: doc})
	}
	logDropped(log, dropped)

	decisions, dropped := Reconcile(existing, incoming, productPolicy)
	logDropped(log, dropped)

	batch := NewBatch(o.store, StageProducts, log)
	for _, d := range decisions {
		label := fmt.Sprintf("%s (%s)", productName(d.Incoming.Doc), d.Incoming.SKU)
		switch d.Action {
		case ActionCreate:
			batch.Create(d.Incoming.Doc, label)
		case ActionUpdate:
			patch, err := productPatch(d.Existing.Doc.Data, d.Incoming.Doc.Data)
			if err != nil {
				log.Warn("Skipping product %s: %v", label, err)
				continue
			}
			batch.Patch(d.ID, patch, label)
		case ActionSkip:
			batch.Skip()
		}
	}
	return batch.Commit(ctx)
}

// productPatch sets every field of the new document and unsets the stored
// fields it no longer has.
func productPatch(existing, incoming json.RawMessage) (docstore.Patch, error) {
	var before, after map[string]json.RawMessage
	if err := json.Unmarshal(existing, &before); err != nil {
		return docstore.Patch{}, err
	}
	if err := json.Unmarshal(incoming, &after); err != nil {
		return docstore.Patch{}, err
	}

	p := docstore.Patch{Set: make(map[string]any, len(after))}
	for k, v := range after {
		if k == "_id" || k == "_type" {
			continue
		}
		p.Set[k] = v
	}
	for k := range before {
		if _, ok := after[k]; !ok && !strings.HasPrefix(k, "_") {
			p.Unset = append(p.Unset, k)
		}
	}
	return p, nil
}

// comparableFields decodes a document without its id and volatile fields.
func comparableFields(data json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	stripVolatile(fields)
	return fields, nil
}

func stripVolatile(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if volatileFields[k] {
				delete(t, k)
				continue
			}
			stripVolatile(child)
		}
	case []any:
		for _, child := range t {
			stripVolatile(child)
		}
	}
}

func productName(doc *docstore.Document) string {
	var head struct {
		Name string `json:"name"`
	}
	_ = doc.Decode(&head)
	return head.Name
}

// categoryResolver finds a category's local id by exact name, caching
// lookups for the duration of one pass.
type categoryResolver struct {
	store docstore.Store
	cache map[string]string
}

func newCategoryResolver(store docstore.Store) *categoryResolver {
	return &categoryResolver{store: store, cache: make(map[string]string)}
}

func (r *categoryResolver) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	if id, ok := r.cache[name]; ok {
		return id, nil
	}

	docs, err := r.store.Fetch(ctx, docstore.Query{
		Type:   models.TypeCategory,
		Field:  "name",
		Equals: name,
		Limit:  1,
	})
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return "", fmt.Errorf("failed to resolve category %q: %w", name, err)
	}

	id := ""
	if len(docs) > 0 {
		id = docs[0].ID
	}
	r.cache[name] = id
	return id, nil
}
