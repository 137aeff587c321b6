package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/unionhall/ledgerhub/plugins"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

// LedgerService owns the ledger tables: accounts, entity accounts, entries and
// payments. Entries are only written by payment allocation and the charge
// plugin pipeline.
type LedgerService struct {
	Config    *Config
	DB        *bun.DB
	Logger    *lecho.Logger
	Directory EntityDirectory
	Plugins   *plugins.Registry
	// PostCommitHooks run after a ledger mutation has committed.
	PostCommitHooks []PostCommitHook
}

var validate = validator.New()

// newID returns a time ordered uuid, so id order follows insert order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func now() time.Time {
	return time.Now().UTC()
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func (svc *LedgerService) directory() EntityDirectory {
	if svc.Directory == nil {
		return &DBDirectory{DB: svc.DB}
	}
	return svc.Directory
}

func (svc *LedgerService) pluginsEnabled() bool {
	return svc.Config == nil || svc.Config.EnableChargePlugins
}

func (svc *LedgerService) participantLimits() (def, max int) {
	def, max = 50, 500
	if svc.Config != nil {
		if svc.Config.DefaultParticipantsLimit > 0 {
			def = svc.Config.DefaultParticipantsLimit
		}
		if svc.Config.MaxParticipantsLimit > 0 {
			max = svc.Config.MaxParticipantsLimit
		}
	}
	return def, max
}

// validationErrorFrom turns validator output into a ValidationError naming the first failing field.
func validationErrorFrom(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return &ValidationError{Field: errs[0].Field(), Message: "failed on the '" + errs[0].Tag() + "' rule", Err: err}
	}
	return &ValidationError{Message: err.Error(), Err: err}
}
