package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
)

// InvoiceSummary is one calendar month of an entity account's entries. It is
// computed from the entries on every read and never stored.
type InvoiceSummary struct {
	EaID            string      `json:"eaId"`
	Year            int         `json:"year"`
	Month           int         `json:"month"`
	EntryCount      int         `json:"entryCount"`
	IncomingBalance money.Cents `json:"incomingBalance"`
	InvoiceBalance  money.Cents `json:"invoiceBalance"`
	OutgoingBalance money.Cents `json:"outgoingBalance"`
}

func (s InvoiceSummary) Period() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}

type InvoiceDetails struct {
	InvoiceSummary
	AccountID     string                   `json:"accountId"`
	AccountName   string                   `json:"accountName"`
	CurrencyCode  string                   `json:"currencyCode"`
	EntityType    string                   `json:"entityType"`
	EntityID      string                   `json:"entityId"`
	EntityName    string                   `json:"entityName"`
	InvoiceHeader string                   `json:"invoiceHeader"`
	InvoiceFooter string                   `json:"invoiceFooter"`
	Entries       []LedgerEntryWithDetails `json:"entries"`
}

type invoicePeriod struct {
	year  int
	month int
}

// sortedDatedEntries drops undated entries and orders the rest by date, then id.
func sortedDatedEntries(entries []models.LedgerEntry) []models.LedgerEntry {
	dated := make([]models.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Dated() {
			dated = append(dated, e)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i].Date.Time, dated[j].Date.Time
		if !a.Equal(b) {
			return a.Before(b)
		}
		return dated[i].ID < dated[j].ID
	})
	return dated
}

func periodOf(e models.LedgerEntry) invoicePeriod {
	t := e.Date.Time.UTC()
	return invoicePeriod{year: t.Year(), month: int(t.Month())}
}

// BucketEntries groups one entity account's dated entries into monthly
// summaries in chronological order. The outgoing balance of a period equals
// the incoming balance of the next one.
func BucketEntries(eaID string, entries []models.LedgerEntry) []InvoiceSummary {
	buckets := []InvoiceSummary{}
	var running money.Cents
	var current *InvoiceSummary
	var currentPeriod invoicePeriod
	for _, e := range sortedDatedEntries(entries) {
		p := periodOf(e)
		if current == nil || p != currentPeriod {
			buckets = append(buckets, InvoiceSummary{
				EaID:            eaID,
				Year:            p.year,
				Month:           p.month,
				IncomingBalance: running,
			})
			current = &buckets[len(buckets)-1]
			currentPeriod = p
		}
		current.EntryCount++
		current.InvoiceBalance += e.Amount
		running += e.Amount
		current.OutgoingBalance = current.IncomingBalance + current.InvoiceBalance
	}
	return buckets
}

// ListInvoicesForEa returns every period of the entity account, most recent first.
func (svc *LedgerService) ListInvoicesForEa(ctx context.Context, eaID string) ([]InvoiceSummary, error) {
	entries, err := entriesByEntityAccount(ctx, svc.DB, eaID)
	if err != nil {
		return nil, err
	}
	buckets := BucketEntries(eaID, entries)
	for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
		buckets[i], buckets[j] = buckets[j], buckets[i]
	}
	return buckets, nil
}

// GetInvoiceDetails returns one period with its entries in chronological
// order, or nil when the entity account has no entries in that period.
func (svc *LedgerService) GetInvoiceDetails(ctx context.Context, eaID string, month, year int) (*InvoiceDetails, error) {
	ea, err := getEntityAccount(ctx, svc.DB, eaID)
	if err != nil || ea == nil {
		return nil, err
	}
	entries, err := entriesByEntityAccount(ctx, svc.DB, eaID)
	if err != nil {
		return nil, err
	}
	var summary *InvoiceSummary
	for _, b := range BucketEntries(eaID, entries) {
		if b.Year == year && b.Month == month {
			b := b
			summary = &b
			break
		}
	}
	if summary == nil {
		return nil, nil
	}

	want := invoicePeriod{year: year, month: month}
	inPeriod := []models.LedgerEntry{}
	for _, e := range sortedDatedEntries(entries) {
		if periodOf(e) == want {
			e.EntityAccount = ea
			inPeriod = append(inPeriod, e)
		}
	}
	d := svc.newDescriber()
	described, err := d.describe(ctx, inPeriod)
	if err != nil {
		return nil, err
	}
	entityName, err := d.entityName(ctx, ea.EntityType, ea.EntityID)
	if err != nil {
		return nil, err
	}
	details := &InvoiceDetails{
		InvoiceSummary: *summary,
		AccountID:      ea.AccountID,
		EntityType:     ea.EntityType,
		EntityID:       ea.EntityID,
		EntityName:     entityName,
		Entries:        described,
	}
	if ea.Account != nil {
		details.AccountName = ea.Account.Name
		details.CurrencyCode = ea.Account.CurrencyCode
		details.InvoiceHeader = ea.Account.InvoiceHeader()
		details.InvoiceFooter = ea.Account.InvoiceFooter()
	}
	return details, nil
}
