package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/uptrace/bun"
)

type Participant struct {
	EaID           string      `json:"eaId"`
	EntityType     string      `json:"entityType"`
	EntityID       string      `json:"entityId"`
	EntityName     string      `json:"entityName"`
	Balance        money.Cents `json:"balance"`
	FirstEntryDate *time.Time  `json:"firstEntryDate"`
	LastEntryDate  *time.Time  `json:"lastEntryDate"`
	EntryCount     int         `json:"entryCount"`
}

type ParticipantPage struct {
	Data  []Participant `json:"data"`
	Total int           `json:"total"`
}

type participantRow struct {
	EaID           string       `bun:"ea_id"`
	EntityType     string       `bun:"entity_type"`
	EntityID       string       `bun:"entity_id"`
	Balance        int64        `bun:"balance"`
	FirstEntryDate bun.NullTime `bun:"first_entry_date"`
	LastEntryDate  bun.NullTime `bun:"last_entry_date"`
	EntryCount     int          `bun:"entry_count"`
}

// GetParticipants lists the account's entity accounts with their aggregate
// balance, sorted by entity name. A limit <= 0 uses the configured default.
func (svc *LedgerService) GetParticipants(ctx context.Context, accountID string, limit, offset int) (*ParticipantPage, error) {
	defaultLimit, maxLimit := svc.participantLimits()
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows := []participantRow{}
	err := svc.DB.NewSelect().
		TableExpr("entity_accounts AS ea").
		ColumnExpr("ea.id AS ea_id").
		ColumnExpr("ea.entity_type").
		ColumnExpr("ea.entity_id").
		ColumnExpr("COALESCE(SUM(entry.amount), 0) AS balance").
		ColumnExpr("MIN(entry.date) AS first_entry_date").
		ColumnExpr("MAX(entry.date) AS last_entry_date").
		ColumnExpr("COUNT(entry.id) AS entry_count").
		Join("LEFT JOIN ledger_entries AS entry ON entry.ea_id = ea.id").
		Where("ea.account_id = ?", accountID).
		GroupExpr("ea.id, ea.entity_type, ea.entity_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	d := svc.newDescriber()
	participants := make([]Participant, 0, len(rows))
	for _, row := range rows {
		name, err := d.entityName(ctx, row.EntityType, row.EntityID)
		if err != nil {
			return nil, err
		}
		participants = append(participants, Participant{
			EaID:           row.EaID,
			EntityType:     row.EntityType,
			EntityID:       row.EntityID,
			EntityName:     name,
			Balance:        money.Cents(row.Balance),
			FirstEntryDate: timePtr(row.FirstEntryDate),
			LastEntryDate:  timePtr(row.LastEntryDate),
			EntryCount:     row.EntryCount,
		})
	}
	sort.SliceStable(participants, func(i, j int) bool {
		a, b := strings.ToLower(participants[i].EntityName), strings.ToLower(participants[j].EntityName)
		if a != b {
			return a < b
		}
		return participants[i].EaID < participants[j].EaID
	})

	page := &ParticipantPage{Data: []Participant{}, Total: len(participants)}
	if offset < len(participants) {
		end := offset + limit
		if end > len(participants) {
			end = len(participants)
		}
		page.Data = participants[offset:end]
	}
	return page, nil
}

func timePtr(t bun.NullTime) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// GetBalance sums every entry of the entity account, dated or not.
func (svc *LedgerService) GetBalance(ctx context.Context, eaID string) (money.Cents, error) {
	var balance int64
	err := svc.DB.NewSelect().
		TableExpr("ledger_entries AS entry").
		ColumnExpr("COALESCE(SUM(entry.amount), 0)").
		Where("entry.ea_id = ?", eaID).
		Scan(ctx, &balance)
	if err != nil {
		return 0, err
	}
	return money.Cents(balance), nil
}
