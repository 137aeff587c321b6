package service

import (
	"context"
	"strings"

	"github.com/unionhall/ledgerhub/db/models"
	"github.com/uptrace/bun"
)

// EntityDirectory resolves display names for the entities entity accounts bind to.
// An empty name with a nil error means the entity is unknown.
type EntityDirectory interface {
	EmployerName(ctx context.Context, id string) (string, error)
	WorkerDisplayName(ctx context.Context, id string) (string, error)
	TrustProviderName(ctx context.Context, id string) (string, error)
}

// DBDirectory reads names from the employer, worker, contact and trust provider tables.
type DBDirectory struct {
	DB bun.IDB
}

func (d *DBDirectory) EmployerName(ctx context.Context, id string) (string, error) {
	employer := models.Employer{}
	err := d.DB.NewSelect().Model(&employer).Where("id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return "", nil
	}
	return employer.Name, err
}

// WorkerDisplayName is "Given Family" from the worker's contact, or "Worker #id".
func (d *DBDirectory) WorkerDisplayName(ctx context.Context, id string) (string, error) {
	worker := models.Worker{}
	err := d.DB.NewSelect().Model(&worker).Relation("Contact").Where("worker.id = ?", id).Limit(1).Scan(ctx)
	if err != nil && !isNotFound(err) {
		return "", err
	}
	if worker.Contact != nil {
		if name := strings.TrimSpace(worker.Contact.Given + " " + worker.Contact.Family); name != "" {
			return name, nil
		}
	}
	return "Worker #" + id, nil
}

func (d *DBDirectory) TrustProviderName(ctx context.Context, id string) (string, error) {
	provider := models.TrustProvider{}
	err := d.DB.NewSelect().Model(&provider).Where("id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return "", nil
	}
	return provider.Name, err
}
