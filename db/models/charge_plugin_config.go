package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// ChargePluginConfig : one configured instance of a charge plugin.
// An empty EmployerID applies the config to every employer.
type ChargePluginConfig struct {
	bun.BaseModel `bun:"table:charge_plugin_configs,alias:cpc"`

	ID         string                 `json:"id" bun:",pk"`
	PluginID   string                 `json:"pluginId" bun:",notnull" validate:"required"`
	Name       string                 `json:"name" bun:",nullzero"`
	Enabled    bool                   `json:"enabled" bun:",notnull"`
	EmployerID string                 `json:"employerId,omitempty" bun:",nullzero"`
	AccountID  string                 `json:"accountId" bun:",notnull" validate:"required"`
	Settings   map[string]interface{} `json:"settings,omitempty" bun:",nullzero"`
	CreatedAt  time.Time              `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt  bun.NullTime           `json:"updatedAt"`
}

func (c *ChargePluginConfig) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		c.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*ChargePluginConfig)(nil)
