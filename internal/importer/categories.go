package importer

import (
	"context"

	"catalogsync/internal/docstore"
	"catalogsync/internal/models"
	"catalogsync/internal/services/logicom"
	"catalogsync/internal/slug"
)

var categoryPolicy = Policy[models.Category]{
	Stage: StageCategories,
	Key:   func(c models.Category) string { return c.SupplierID },
	ID:    func(c models.Category) string { return c.ID },
	Equal: func(existing, incoming models.Category) bool {
		return existing.Name == incoming.Name &&
			existing.Slug == incoming.Slug &&
			existing.ParentID() == incoming.ParentID()
	},
}

// FlatCategories is a flattened category tree in pre-order.
type FlatCategories struct {
	Categories []models.Category
	// ResolvedIDs maps each normalized supplier id to the local id its
	// document has or will have.
	ResolvedIDs map[string]string
}

// FlattenCategories walks the supplier tree depth-first. existingIDs maps
// normalized supplier ids to the ids of documents already stored. Each child
// is parented to its parent's resolved id whatever the parent's own outcome.
// A node without an id is dropped and its children become roots. Supplier ids
// that sanitize to a document id owned by another supplier id get a
// digest-suffixed id instead.
func FlattenCategories(roots []logicom.Category, existingIDs map[string]string) (FlatCategories, []error) {
	type frame struct {
		node     *logicom.Category
		parentID string
	}

	flat := FlatCategories{ResolvedIDs: make(map[string]string)}
	var dropped []error

	// document id -> normalized supplier id holding it
	owners := make(map[string]string, len(existingIDs))
	for key, id := range existingIDs {
		owners[id] = key
	}

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: &roots[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		supplierID := f.node.ID.String()
		key := slug.NormalizeKey(supplierID)
		resolvedID := ""

		switch {
		case key == "":
			dropped = append(dropped, &ReconciliationError{
				Stage:  StageCategories,
				Key:    f.node.Name.String(),
				Reason: "category has no Id",
			})
		case flat.ResolvedIDs[key] != "":
			resolvedID = flat.ResolvedIDs[key]
			dropped = append(dropped, &ReconciliationError{
				Stage:  StageCategories,
				Key:    supplierID,
				Reason: "category appears more than once in the tree",
			})
		default:
			resolvedID = existingIDs[key]
			if resolvedID == "" {
				resolvedID = slug.CategoryID(supplierID)
				if owner, taken := owners[resolvedID]; taken && owner != key {
					resolvedID = slug.DistinctCategoryID(supplierID)
				}
			}
			if owner, taken := owners[resolvedID]; taken && owner != key {
				dropped = append(dropped, &ReconciliationError{
					Stage:  StageCategories,
					Key:    supplierID,
					Reason: "document id " + resolvedID + " already in use",
				})
				resolvedID = ""
				break
			}
			owners[resolvedID] = key
			flat.ResolvedIDs[key] = resolvedID

			name := f.node.Name.String()
			flat.Categories = append(flat.Categories, models.Category{
				ID:             resolvedID,
				Type:           models.TypeCategory,
				SupplierID:     supplierID,
				Name:           name,
				Slug:           models.NewSlug(slug.Make(name)),
				ParentCategory: models.NewReference(f.parentID),
			})
		}

		children := f.node.Subcategories
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: &children[i], parentID: resolvedID})
		}
	}

	return flat, dropped
}

// ImportCategories syncs the supplier's category tree. Categories are matched
// by supplier id.
func (o *Orchestrator) ImportCategories(ctx context.Context) (models.ImportStats, error) {
	log := o.logger.With("categories")
	log.Info("Starting category import process...")

	existing, err := fetchAll[models.Category](ctx, o.store, models.TypeCategory)
	if err != nil {
		return models.ImportStats{}, err
	}
	existingIDs := make(map[string]string, len(existing))
	for _, c := range existing {
		if key := slug.NormalizeKey(c.SupplierID); key != "" {
			if _, dup := existingIDs[key]; !dup {
				existingIDs[key] = c.ID
			}
		}
	}

	roots, err := o.supplier.GetProductCategories(ctx)
	if err != nil {
		return models.ImportStats{}, err
	}

	flat, dropped := FlattenCategories(roots, existingIDs)
	logDropped(log, dropped)

	decisions, dropped := Reconcile(existing, flat.Categories, categoryPolicy)
	logDropped(log, dropped)

	batch := NewBatch(o.store, StageCategories, log)
	for _, d := range decisions {
		c := d.Incoming
		switch d.Action {
		case ActionCreate:
			doc, err := docstore.NewDocument(c)
			if err != nil {
				log.Warn("Skipping category %q: %v", c.Name, err)
				continue
			}
			batch.Create(doc, c.Name)
		case ActionUpdate:
			batch.Patch(d.ID, categoryPatch(c), c.Name)
		case ActionSkip:
			batch.Skip()
		}
	}
	return batch.Commit(ctx)
}

// categoryPatch rewrites every comparable field; a root category loses any
// previous parent link.
func categoryPatch(c models.Category) docstore.Patch {
	p := docstore.Patch{Set: map[string]any{
		"Id":   c.SupplierID,
		"name": c.Name,
		"slug": c.Slug,
	}}
	if c.ParentCategory != nil {
		p.Set["parentCategory"] = c.ParentCategory
	} else {
		p.Unset = []string{"parentCategory"}
	}
	return p
}

// PurgeCategories deletes every category document in one transaction.
func (o *Orchestrator) PurgeCategories(ctx context.Context) (int, error) {
	if !o.mu.TryLock() {
		return 0, ErrRunInProgress
	}
	defer o.mu.Unlock()

	log := o.logger.With("categories")
	docs, err := o.store.Fetch(ctx, docstore.Query{Type: models.TypeCategory})
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		log.Info("No categories to delete")
		return 0, nil
	}

	tx := o.store.Transaction()
	for _, d := range docs {
		tx.Delete(d.ID)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, &CommitError{Stage: StageCategories, Err: err}
	}
	log.Info("Deleted %d categories", len(docs))
	return len(docs), nil
}
