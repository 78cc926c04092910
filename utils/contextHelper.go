package utils

import (
	"context"

	"github.com/mmdatafocus/areabasket_sync/appctx"
)

var (
	ContextKeyRunId   = appctx.ContextKeyRunId
	ContextKeyHexCode = appctx.ContextKeyHexCode
)

func GetRunIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRunId)
}

func GetHexCodeFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyHexCode)
}

func SetRunIdInContext(ctx context.Context, runId string) context.Context {
	return appctx.Set(ctx, ContextKeyRunId, runId)
}

func SetHexCodeInContext(ctx context.Context, hexCode string) context.Context {
	return appctx.Set(ctx, ContextKeyHexCode, hexCode)
}
