package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/production_backend/appctx"
)

var (
	ContextKeyFactoryId        = appctx.ContextKeyFactoryId
	ContextKeyUserName         = appctx.ContextKeyUserName
	ContextKeyCorrelationId    = appctx.ContextKeyCorrelationId
	ContextKeySkipFactoryScope = appctx.ContextKeySkipFactoryScope
)

func GetFactoryIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyFactoryId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetFactoryIdInContext(ctx context.Context, factoryId string) context.Context {
	return appctx.Set(ctx, ContextKeyFactoryId, factoryId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetSkipFactoryScopeInContext(ctx context.Context, skip bool) context.Context {
	return appctx.Set(ctx, ContextKeySkipFactoryScope, skip)
}
