package config

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/production_backend/appctx"
	"gorm.io/gorm/clause"
)

func TestWhereMentionsFactory(t *testing.T) {
	cases := []struct {
		name string
		expr clause.Expression
		want bool
	}{
		{"eq on column", clause.Eq{Column: clause.Column{Name: "factory_id"}, Value: "f"}, true},
		{"eq on string column", clause.Eq{Column: "FACTORY_ID", Value: "f"}, true},
		{"in list", clause.IN{Column: clause.Column{Name: "factory_id"}, Values: []any{"a", "b"}}, true},
		{"raw expr", clause.Expr{SQL: "articles.factory_id = ?", Vars: []any{"f"}}, true},
		{"nested and", clause.AndConditions{Exprs: []clause.Expression{clause.Eq{Column: "factory_id", Value: "f"}}}, true},
		{"other column", clause.Eq{Column: clause.Column{Name: "article_id"}, Value: 1}, false},
	}
	for _, tc := range cases {
		c := clause.Clause{Expression: clause.Where{Exprs: []clause.Expression{tc.expr}}}
		if got := whereMentionsFactory(c); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if whereMentionsFactory(clause.Clause{}) {
		t.Fatalf("empty clause must not count as scoped")
	}
}

func TestSkipFactoryScope(t *testing.T) {
	ctx := context.Background()
	if skipFactoryScope(ctx) {
		t.Fatalf("scope must apply by default")
	}
	if !skipFactoryScope(appctx.Set(ctx, appctx.ContextKeySkipFactoryScope, true)) {
		t.Fatalf("internal jobs must be able to opt out")
	}
}
