package importer

import (
	"context"

	"catalogsync/internal/docstore"
	"catalogsync/internal/models"
	"catalogsync/internal/slug"
)

var brandPolicy = Policy[models.Brand]{
	Stage: StageBrands,
	Key:   func(b models.Brand) string { return b.Name },
	ID:    func(b models.Brand) string { return b.ID },
	Equal: func(existing, incoming models.Brand) bool {
		return slug.NormalizeKey(existing.Name) == slug.NormalizeKey(incoming.Name) &&
			existing.Slug.Current == incoming.Slug.Current
	},
}

// ImportBrands syncs the supplier's brand list. Brands are matched by
// case-folded name.
func (o *Orchestrator) ImportBrands(ctx context.Context) (models.ImportStats, error) {
	log := o.logger.With("brands")
	log.Info("Starting brand import process...")

	existing, err := fetchAll[models.Brand](ctx, o.store, models.TypeBrand)
	if err != nil {
		return models.ImportStats{}, err
	}

	supplierBrands, err := o.supplier.GetBrands(ctx)
	if err != nil {
		return models.ImportStats{}, err
	}

	incoming := make([]models.Brand, 0, len(supplierBrands))
	for _, b := range supplierBrands {
		name := b.Brand.String()
		incoming = append(incoming, models.Brand{
			ID:   slug.BrandID(name),
			Type: models.TypeBrand,
			Name: name,
			Slug: models.NewSlug(slug.Make(name)),
		})
	}

	decisions, dropped := Reconcile(existing, incoming, brandPolicy)
	logDropped(log, dropped)

	batch := NewBatch(o.store, StageBrands, log)
	for _, d := range decisions {
		switch d.Action {
		case ActionCreate:
			doc, err := docstore.NewDocument(d.Incoming)
			if err != nil {
				log.Warn("Skipping brand %q: %v", d.Incoming.Name, err)
				continue
			}
			batch.Create(doc, d.Incoming.Name)
		case ActionUpdate:
			batch.Patch(d.ID, docstore.Patch{Set: map[string]any{
				"name": d.Incoming.Name,
				"slug": d.Incoming.Slug,
			}}, d.Incoming.Name)
		case ActionSkip:
			batch.Skip()
		}
	}
	return batch.Commit(ctx)
}
