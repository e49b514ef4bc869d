package main

import (
	"context"

	"mystery-train-be/internal/api/http"
	"mystery-train-be/internal/config"
	"mystery-train-be/internal/logger"
	"mystery-train-be/internal/service"
	"mystery-train-be/internal/service/game"
	"mystery-train-be/internal/state"
	"mystery-train-be/internal/store"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	sync := logger.InitLogger(cfg.LogLevel)
	defer sync()

	// 角色与扩展点必须在创建任何会话前注册完毕
	registry := game.NewRoleRegistry()
	game.RegisterDefaultRoles(registry)

	hooks := game.NewHooks()
	game.RegisterDefaultHooks(hooks, game.DefaultCatalog())

	forced := game.NewForcedRoles()

	settings, err := cfg.Game.ToSettings()
	if err != nil {
		zap.L().Fatal("对局规则无效", zap.Error(err))
	}

	opts := service.Options{
		Registry:       registry,
		Hooks:          hooks,
		Forced:         forced,
		TickInterval:   cfg.TickInterval(),
		InventorySlots: cfg.Game.InventorySlots,
	}

	// 存储中保存的管理员设置覆盖配置文件
	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			zap.L().Fatal("打开存储失败", zap.Error(err))
		}
		defer st.Close()

		if err := service.Restore(context.Background(), st, registry, forced, &settings); err != nil {
			zap.L().Fatal("恢复设置失败", zap.Error(err))
		}

		opts.Store = st
	}

	opts.Settings = settings

	// 组装应用状态
	sessionSvc := service.NewSessionService(opts)
	defer sessionSvc.Close()

	appState := state.NewAppState(
		cfg,
		sessionSvc,
	)

	// 启动服务器
	if err := http.RunServer(appState); err != nil {
		zap.L().Error("HTTP 服务退出", zap.Error(err))
	}
}
