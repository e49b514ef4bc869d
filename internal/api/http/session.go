package http

import (
	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/state"

	"github.com/kataras/iris/v12"
)

func CreateSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateSessionRequest

		if !readJSON(ctx, &req) {
			return
		}

		resp, err := appState.SessionSvc.CreateSession(req)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(resp)
	}
}

func ListSessions(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.ListSessions()
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func GetSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.GetSession(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func StartRound(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.StartRound(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

func StopRound(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		resp, err := appState.SessionSvc.StopRound(ctx.Params().Get("id"))
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(resp)
	}
}

// GiveKey 给会话中的玩家发放房间钥匙
func GiveKey(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.GiveKeyRequest

		if !readJSON(ctx, &req) {
			return
		}

		if err := appState.SessionSvc.GiveKey(ctx.Params().Get("id"), req.PlayerID, req.Room); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(req)
	}
}
