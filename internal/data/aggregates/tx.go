package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

// GormTx runs each write in a gorm transaction on db.
func GormTx(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if db == nil {
			return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database configured", nil)
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}
