package http

import (
	"errors"

	"mystery-train-be/internal/service"
	"mystery-train-be/internal/service/game"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNoForcedRole),
		errors.Is(err, game.ErrUnknownPlayer):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrServiceBusy),
		errors.Is(err, service.ErrServiceClosed):
		return iris.StatusServiceUnavailable
	case errors.Is(err, service.ErrPersistFailed):
		return iris.StatusInternalServerError
	}

	var gameErr *game.Error
	if !errors.As(err, &gameErr) {
		return iris.StatusBadRequest
	}

	switch gameErr.Kind {
	case game.KIND_VALIDATION:
		return iris.StatusBadRequest
	case game.KIND_PRECONDITION, game.KIND_RESOURCE_EXHAUSTED:
		return iris.StatusConflict
	}

	return iris.StatusInternalServerError
}

func writeError(ctx iris.Context, err error) {
	status := statusOf(err)
	if status >= iris.StatusInternalServerError {
		zap.L().Error("处理请求失败", zap.String("path", ctx.Path()), zap.Error(err))
	}

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{
		"error": err.Error(),
	})
}

func readJSON(ctx iris.Context, v any) bool {
	if err := ctx.ReadJSON(v); err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"error": "请求参数无效",
		})
		return false
	}

	return true
}
