package http

import (
	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/state"

	"github.com/kataras/iris/v12"
)

func GetForcedRole(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		playerID := ctx.Params().Get("player")

		roleID, ok, err := appState.SessionSvc.GetForcedRole(playerID)
		if err != nil {
			writeError(ctx, err)
			return
		}
		if !ok {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": "该玩家没有强制角色",
			})
			return
		}

		ctx.JSON(dto.ForcedRoleResponse{PlayerID: playerID, RoleID: roleID})
	}
}

func ForceRole(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.ForceRoleRequest

		if !readJSON(ctx, &req) {
			return
		}

		playerID := ctx.Params().Get("player")

		if err := appState.SessionSvc.ForceRole(ctx.Request().Context(), playerID, req.RoleID); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(dto.ForcedRoleResponse{PlayerID: playerID, RoleID: req.RoleID})
	}
}

func ClearForcedRole(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.SessionSvc.ClearForcedRole(ctx.Request().Context(), ctx.Params().Get("player")); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusNoContent)
	}
}

func ListRoles(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.Roles()
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func SetRoleEnabled(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.SetRoleEnabledRequest

		if !readJSON(ctx, &req) {
			return
		}

		if err := appState.SessionSvc.SetRoleEnabled(ctx.Request().Context(), ctx.Params().Get("role"), req.Enabled); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(req)
	}
}

func GetSettings(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.Settings()
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

// settingsHandler 读取请求体、执行修改并返回修改后的规则
func settingsHandler[T any](appState *state.AppState, apply func(ctx iris.Context, req T) error) iris.Handler {
	return func(ctx iris.Context) {
		var req T

		if !readJSON(ctx, &req) {
			return
		}

		if err := apply(ctx, req); err != nil {
			writeError(ctx, err)
			return
		}

		resp, err := appState.SessionSvc.Settings()
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func SetBackfireChance(appState *state.AppState) iris.Handler {
	return settingsHandler(appState, func(ctx iris.Context, req dto.SetBackfireRequest) error {
		return appState.SessionSvc.SetBackfireChance(ctx.Request().Context(), req.Chance)
	})
}

func SetDivisors(appState *state.AppState) iris.Handler {
	return settingsHandler(appState, func(ctx iris.Context, req dto.SetDivisorsRequest) error {
		return appState.SessionSvc.SetDivisors(ctx.Request().Context(), req.Vigilante, req.Neutral)
	})
}

func SetBounds(appState *state.AppState) iris.Handler {
	return settingsHandler(appState, func(ctx iris.Context, req dto.SetBoundsRequest) error {
		return appState.SessionSvc.SetBounds(ctx.Request().Context(), req.Enabled)
	})
}

func SetPunishment(appState *state.AppState) iris.Handler {
	return settingsHandler(appState, func(ctx iris.Context, req dto.SetPunishmentRequest) error {
		return appState.SessionSvc.SetShootInnocentPunishment(ctx.Request().Context(), req.Mode)
	})
}

func SetAutostart(appState *state.AppState) iris.Handler {
	return settingsHandler(appState, func(ctx iris.Context, req dto.SetAutostartRequest) error {
		return appState.SessionSvc.SetAutostart(ctx.Request().Context(), req.Seconds)
	})
}
