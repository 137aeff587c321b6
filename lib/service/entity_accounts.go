package service

import (
	"context"
	"database/sql"

	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/uptrace/bun"
)

// GetOrCreateEntityAccount returns the link binding the entity to the account,
// creating it on first use. Concurrent callers with the same triple get the same link.
func (svc *LedgerService) GetOrCreateEntityAccount(ctx context.Context, entityType, entityID, accountID string) (*models.EntityAccount, error) {
	if err := validateEntityRef(entityType, entityID, accountID); err != nil {
		return nil, err
	}
	var ea *models.EntityAccount
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		ea, err = getOrCreateEntityAccount(ctx, tx, entityType, entityID, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ea, nil
}

func validateEntityRef(entityType, entityID, accountID string) error {
	if !common.IsEntityType(entityType) {
		return newValidationError("entityType", "unknown entity type %q", entityType)
	}
	if entityID == "" {
		return newValidationError("entityId", "is required")
	}
	if accountID == "" {
		return newValidationError("accountId", "is required")
	}
	return nil
}

// getOrCreateEntityAccount must run inside a transaction.
func getOrCreateEntityAccount(ctx context.Context, db bun.IDB, entityType, entityID, accountID string) (*models.EntityAccount, error) {
	existing, err := findEntityAccount(ctx, db, accountID, entityType, entityID)
	if err != nil || existing != nil {
		return existing, err
	}
	candidate := &models.EntityAccount{
		ID:         newID(),
		AccountID:  accountID,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  now(),
	}
	inserted, err := insertEntityAccountIfAbsent(ctx, db, candidate)
	if err != nil {
		return nil, err
	}
	if inserted {
		return candidate, nil
	}
	// lost the insert race, the winner's row is committed by now
	winner, err := findEntityAccount(ctx, db, accountID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, invariantViolation("entity account %s/%s on account %s missing after conflicting insert", entityType, entityID, accountID)
	}
	return winner, nil
}

// insertEntityAccountIfAbsent reports false when a link for the same triple already exists.
func insertEntityAccountIfAbsent(ctx context.Context, db bun.IDB, ea *models.EntityAccount) (bool, error) {
	res, err := db.NewInsert().
		Model(ea).
		On("CONFLICT (account_id, entity_type, entity_id) DO NOTHING").
		Exec(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func findEntityAccount(ctx context.Context, db bun.IDB, accountID, entityType, entityID string) (*models.EntityAccount, error) {
	ea := models.EntityAccount{}
	err := db.NewSelect().
		Model(&ea).
		Where("account_id = ?", accountID).
		Where("entity_type = ?", entityType).
		Where("entity_id = ?", entityID).
		Limit(1).
		Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ea, nil
}

func (svc *LedgerService) FindEntityAccount(ctx context.Context, accountID, entityType, entityID string) (*models.EntityAccount, error) {
	return findEntityAccount(ctx, svc.DB, accountID, entityType, entityID)
}

func (svc *LedgerService) GetEntityAccount(ctx context.Context, id string) (*models.EntityAccount, error) {
	return getEntityAccount(ctx, svc.DB, id)
}

func getEntityAccount(ctx context.Context, db bun.IDB, id string) (*models.EntityAccount, error) {
	ea := models.EntityAccount{}
	err := db.NewSelect().Model(&ea).Relation("Account").Where("ea.id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ea, nil
}

func (svc *LedgerService) ListEntityAccounts(ctx context.Context, accountID string) ([]models.EntityAccount, error) {
	eas := []models.EntityAccount{}
	err := svc.DB.NewSelect().Model(&eas).Where("account_id = ?", accountID).OrderExpr("id ASC").Scan(ctx)
	return eas, err
}

// UpdateEntityAccountData replaces the link's metadata. The binding itself never changes.
func (svc *LedgerService) UpdateEntityAccountData(ctx context.Context, id string, data map[string]interface{}) (*models.EntityAccount, error) {
	ea := &models.EntityAccount{ID: id, Data: data}
	res, err := svc.DB.NewUpdate().Model(ea).Column("data").WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}
	return svc.GetEntityAccount(ctx, id)
}
