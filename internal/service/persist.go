package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mystery-train-be/internal/service/game"

	"go.uber.org/zap"
)

var ErrPersistFailed = errors.New("设置已生效但保存失败")

// Persister 保存跨重启保留的管理员设置
type Persister interface {
	SaveForcedRole(ctx context.Context, playerID, roleID string) error
	DeleteForcedRole(ctx context.Context, playerID string) error
	SaveRoleToggle(ctx context.Context, roleID string, enabled bool) error
	SaveSettings(ctx context.Context, settings game.Settings) error
}

type StateSource interface {
	LoadForcedRoles(ctx context.Context) (map[string]string, error)
	LoadRoleToggles(ctx context.Context) (map[string]bool, error)
	LoadSettings(ctx context.Context) (game.Settings, bool, error)
}

// Restore 在服务启动前把保存的设置写回引擎，引用未知角色的记录会被忽略
func Restore(
	ctx context.Context,
	src StateSource,
	registry *game.RoleRegistry,
	forced *game.ForcedRoles,
	settings *game.Settings,
) error {
	toggles, err := src.LoadRoleToggles(ctx)
	if err != nil {
		return fmt.Errorf("恢复角色开关失败: %w", err)
	}

	for roleID, enabled := range toggles {
		if err := registry.SetEnabled(roleID, enabled); err != nil {
			zap.L().Warn("忽略无效的角色开关", zap.String("role_id", roleID), zap.Error(err))
		}
	}

	roles, err := src.LoadForcedRoles(ctx)
	if err != nil {
		return fmt.Errorf("恢复强制角色失败: %w", err)
	}

	for playerID, roleID := range roles {
		if _, ok := registry.Get(roleID); !ok {
			zap.L().Warn(
				"忽略引用未知角色的强制角色",
				zap.String("player_id", playerID),
				zap.String("role_id", roleID),
			)
			continue
		}
		forced.Set(playerID, roleID)
	}

	saved, ok, err := src.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("恢复对局规则失败: %w", err)
	}
	if ok {
		*settings = saved
	}

	zap.L().Info(
		"已恢复保存的设置",
		zap.Int("role_toggles", len(toggles)),
		zap.Int("forced_roles", forced.Len()),
		zap.Bool("settings", ok),
	)

	return nil
}

// writeQueue 让存储写入按修改生效的顺序执行
type writeQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
	turn uint64
}

func newWriteQueue() *writeQueue {
	q := &writeQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// ticket 必须在模拟协程上与修改同时领取，领取后必须交给 do
func (q *writeQueue) ticket() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.next
	q.next++
	return t
}

func (q *writeQueue) do(ticket uint64, fn func()) {
	q.mu.Lock()
	for q.turn != ticket {
		q.cond.Wait()
	}
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.turn++
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	fn()
}

func (ss *SessionService) persist(ticket uint64, op string, fn func(p Persister) error) error {
	var err error

	ss.writes.do(ticket, func() {
		if ss.store == nil {
			return
		}
		err = fn(ss.store)
	})

	if err != nil {
		zap.L().Error("设置已生效但保存失败", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	return nil
}
