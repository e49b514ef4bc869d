package http

import (
	"fmt"

	"mystery-train-be/internal/api/http/websocket"
	"mystery-train-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func RunServer(appState *state.AppState) error {
	app := newApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	zap.S().Infof("HTTP 服务监听 %s", addr)

	return app.Listen(addr)
}

func newApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	if dir := appState.Cfg.StaticDir; dir != "" {
		app.HandleDir(
			"/",
			iris.Dir(dir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	api := app.Party("/api/v1")

	sessions := api.Party("/sessions")
	sessions.Post("", CreateSession(appState))
	sessions.Get("", ListSessions(appState))
	sessions.Get("/{id}", GetSession(appState))
	sessions.Post("/{id}/start", StartRound(appState))
	sessions.Post("/{id}/stop", StopRound(appState))
	sessions.Post("/{id}/keys", GiveKey(appState))

	api.Get("/forced-roles/{player}", GetForcedRole(appState))
	api.Put("/forced-roles/{player}", ForceRole(appState))
	api.Delete("/forced-roles/{player}", ClearForcedRole(appState))

	api.Get("/roles", ListRoles(appState))
	api.Put("/roles/{role}/enabled", SetRoleEnabled(appState))

	settings := api.Party("/settings")
	settings.Get("", GetSettings(appState))
	settings.Put("/backfire", SetBackfireChance(appState))
	settings.Put("/divisors", SetDivisors(appState))
	settings.Put("/bounds", SetBounds(appState))
	settings.Put("/punishment", SetPunishment(appState))
	settings.Put("/autostart", SetAutostart(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	return app
}
