package models

import "github.com/uptrace/bun"

// The tables below are owned by the member/employer CRUD services.
// The ledger only reads them to render display names.

type Employer struct {
	bun.BaseModel `bun:"table:employers,alias:employer"`

	ID   string `bun:",pk"`
	Name string `bun:",notnull"`
}

type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:contact"`

	ID     string `bun:",pk"`
	Given  string `bun:",nullzero"`
	Family string `bun:",nullzero"`
}

type Worker struct {
	bun.BaseModel `bun:"table:workers,alias:worker"`

	ID        string   `bun:",pk"`
	ContactID string   `bun:",nullzero"`
	Contact   *Contact `bun:"rel:belongs-to,join:contact_id=id"`
}

type TrustProvider struct {
	bun.BaseModel `bun:"table:trust_providers,alias:trust_provider"`

	ID   string `bun:",pk"`
	Name string `bun:",notnull"`
}
