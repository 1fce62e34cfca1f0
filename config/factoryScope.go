package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/production_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FactoryScopePlugin keeps one factory from reading or changing another factory's articles,
// orders, products and ledger rows. Every query, update and delete on a table with a factory_id
// column gets "factory_id = <request factory>" unless the statement already filters on it.
//
// Raw SQL is not scoped. The outbox dispatcher and the cmd tools run across factories and opt
// out with appctx.ContextKeySkipFactoryScope.
type FactoryScopePlugin struct{}

const factoryColumn = "factory_id"

func NewFactoryScopePlugin() *FactoryScopePlugin { return &FactoryScopePlugin{} }

func (p *FactoryScopePlugin) Name() string { return "factory_scope" }

func (p *FactoryScopePlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("factory_scope:query", factoryScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("factory_scope:row", factoryScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("factory_scope:update", factoryScopeCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("factory_scope:delete", factoryScopeCallback); err != nil {
		return err
	}
	return nil
}

// factoryScopeCallback runs before each statement. Requests without a factory (probes,
// migrations) are left alone; the HTTP identity middleware guarantees one on every API route.
func factoryScopeCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Schema == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil || skipFactoryScope(ctx) {
		return
	}
	factoryId, _ := appctx.GetString(ctx, appctx.ContextKeyFactoryId)
	if factoryId == "" {
		return
	}
	if db.Statement.Schema.LookUpField(factoryColumn) == nil {
		return
	}
	if whereMentionsFactory(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: factoryColumn},
				Value:  factoryId,
			},
		},
	})
}

func skipFactoryScope(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, appctx.ContextKeySkipFactoryScope)
	return ok && v
}

// whereMentionsFactory reports whether the statement already filters by factory.
func whereMentionsFactory(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprMentionsFactory(e) {
			return true
		}
	}
	return false
}

func exprMentionsFactory(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isFactoryColumn(v.Column)
	case clause.IN:
		return isFactoryColumn(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprMentionsFactory(x) {
				return true
			}
		}
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), factoryColumn)
	}
	return false
}

func isFactoryColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, factoryColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, factoryColumn)
	}
	return false
}
