package integration

import (
	"errors"

	"github.com/marketplace/backend/internal/domain/integration"
)

var errDuplicateInPage = errors.New("duplicate product ID in page")

// ChangeKind is what reconciliation decided for one remote product
type ChangeKind string

const (
	ChangeCreate  ChangeKind = "create"
	ChangeUpdate  ChangeKind = "update"
	ChangeSkip    ChangeKind = "skip"
	ChangeInvalid ChangeKind = "invalid"
)

// StagedChange pairs a remote product with its local counterpart, if any
type StagedChange struct {
	Kind   ChangeKind
	Remote *integration.PlatformProduct
	Local  *integration.CatalogProduct
	Err    error
}

// Reconciler decides create, update or skip for a page of remote products.
// It does no I/O.
type Reconciler struct{}

// NewReconciler creates a Reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Stage classifies remote products against the local products of the same
// page, keyed by platform product ID. Output keeps remote order. A repeated
// ID within one page is invalid after its first occurrence.
func (r *Reconciler) Stage(local map[string]*integration.CatalogProduct, remote []integration.PlatformProduct) []StagedChange {
	changes := make([]StagedChange, 0, len(remote))
	seen := make(map[string]struct{}, len(remote))

	for i := range remote {
		item := &remote[i]
		change := r.Classify(local[item.ID], item)
		if change.Kind != ChangeInvalid {
			if _, dup := seen[item.ID]; dup {
				change = StagedChange{
					Kind:   ChangeInvalid,
					Remote: item,
					Err: &integration.PerItemSyncError{
						PlatformProductID: item.ID,
						SKU:               item.SKU,
						Op:                "stage",
						Err:               errDuplicateInPage,
					},
				}
			}
			seen[item.ID] = struct{}{}
		}
		changes = append(changes, change)
	}
	return changes
}

// Classify decides the change for a single remote product. local is nil when
// no linked product exists.
func (r *Reconciler) Classify(local *integration.CatalogProduct, remote *integration.PlatformProduct) StagedChange {
	switch {
	case remote == nil || remote.ID == "":
		var sku string
		if remote != nil {
			sku = remote.SKU
		}
		return StagedChange{
			Kind:   ChangeInvalid,
			Remote: remote,
			Err:    &integration.PerItemSyncError{SKU: sku, Op: "stage", Err: integration.ErrInvalidProduct},
		}
	case local == nil:
		return StagedChange{Kind: ChangeCreate, Remote: remote}
	case !local.Matches(remote):
		return StagedChange{Kind: ChangeUpdate, Remote: remote, Local: local}
	default:
		return StagedChange{Kind: ChangeSkip, Remote: remote, Local: local}
	}
}
