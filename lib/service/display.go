package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/uptrace/bun"
)

// LedgerEntryWithDetails is an entry joined with the names needed to show it.
type LedgerEntryWithDetails struct {
	models.LedgerEntry
	AccountID     string `json:"accountId"`
	EntityType    string `json:"entityType"`
	EntityID      string `json:"entityId"`
	EntityName    string `json:"entityName"`
	ReferenceName string `json:"referenceName"`
}

type entityNameResolver func(dir EntityDirectory, ctx context.Context, id string) (string, error)

var entityNameResolvers = map[string]entityNameResolver{
	common.EntityTypeEmployer:      EntityDirectory.EmployerName,
	common.EntityTypeWorker:        EntityDirectory.WorkerDisplayName,
	common.EntityTypeTrustProvider: EntityDirectory.TrustProviderName,
}

// referenceResolver renders the display name of every reference id of one type.
// Ids missing from the result fall back to the generic label.
type referenceResolver func(ctx context.Context, d *describer, referenceType string, ids []string) (map[string]string, error)

var referenceResolvers = map[string]referenceResolver{
	common.ReferenceTypePayment:       paymentReferences,
	common.ReferenceTypeEmployer:      entityReferences,
	common.ReferenceTypeWorker:        entityReferences,
	common.ReferenceTypeTrustProvider: entityReferences,
}

// describer memoizes name lookups for one listing.
type describer struct {
	svc   *LedgerService
	dir   EntityDirectory
	names map[string]string
}

func (svc *LedgerService) newDescriber() *describer {
	return &describer{svc: svc, dir: svc.directory(), names: map[string]string{}}
}

func (d *describer) entityName(ctx context.Context, entityType, entityID string) (string, error) {
	cacheKey := entityType + ":" + entityID
	if name, ok := d.names[cacheKey]; ok {
		return name, nil
	}
	name := ""
	if resolve, ok := entityNameResolvers[entityType]; ok {
		var err error
		name, err = resolve(d.dir, ctx, entityID)
		if err != nil {
			return "", err
		}
	}
	if name == "" {
		name = fallbackName(entityType, entityID)
	}
	d.names[cacheKey] = name
	return name, nil
}

func entityReferences(ctx context.Context, d *describer, referenceType string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		name, err := d.entityName(ctx, referenceType, id)
		if err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, nil
}

func paymentReferences(ctx context.Context, d *describer, _ string, ids []string) (map[string]string, error) {
	payments := []models.LedgerPayment{}
	err := d.svc.DB.NewSelect().Model(&payments).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(payments))
	for _, p := range payments {
		names[p.ID] = paymentLabel(p.Amount, p.Memo)
	}
	return names, nil
}

func paymentLabel(amount money.Cents, memo string) string {
	if memo == "" {
		return "Payment " + amount.Display()
	}
	return fmt.Sprintf("Payment %s - %s", amount.Display(), memo)
}

// fallbackName renders "{Type} ({first 8 chars of id})".
func fallbackName(kind, id string) string {
	label := kind
	if label == "" {
		label = "reference"
	}
	label = strings.ToUpper(label[:1]) + label[1:]
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s (%s)", label, id)
}

// describe enriches entries in order. Entries must have EntityAccount loaded.
func (d *describer) describe(ctx context.Context, entries []models.LedgerEntry) ([]LedgerEntryWithDetails, error) {
	idsByType := map[string][]string{}
	for _, e := range entries {
		if e.ReferenceType != "" && e.ReferenceID != "" {
			idsByType[e.ReferenceType] = append(idsByType[e.ReferenceType], e.ReferenceID)
		}
	}
	references := map[string]map[string]string{}
	for referenceType, ids := range idsByType {
		resolve, ok := referenceResolvers[referenceType]
		if !ok {
			continue
		}
		names, err := resolve(ctx, d, referenceType, dedupe(ids))
		if err != nil {
			return nil, err
		}
		references[referenceType] = names
	}

	result := make([]LedgerEntryWithDetails, 0, len(entries))
	for _, e := range entries {
		details := LedgerEntryWithDetails{LedgerEntry: e}
		if ea := e.EntityAccount; ea != nil {
			details.AccountID = ea.AccountID
			details.EntityType = ea.EntityType
			details.EntityID = ea.EntityID
			name, err := d.entityName(ctx, ea.EntityType, ea.EntityID)
			if err != nil {
				return nil, err
			}
			details.EntityName = name
		}
		if e.ReferenceID != "" {
			details.ReferenceName = references[e.ReferenceType][e.ReferenceID]
			if details.ReferenceName == "" {
				details.ReferenceName = fallbackName(e.ReferenceType, e.ReferenceID)
			}
		}
		result = append(result, details)
	}
	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
