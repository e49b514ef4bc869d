package service

import (
	"context"
	"errors"
	"fmt"

	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/service/game"

	"go.uber.org/zap"
)

var ErrNoForcedRole = errors.New("该玩家没有强制角色")

// 以下为管理员命令，每个返回的 error 都是给人看的失败原因

func (ss *SessionService) ForceRole(ctx context.Context, playerID, roleID string) error {
	if playerID == "" {
		return fmt.Errorf("%w：玩家不能为空", game.ErrInvalidArgument)
	}

	var (
		opErr  error
		ticket uint64
	)

	err := ss.submit(func() {
		if _, ok := ss.registry.Get(roleID); !ok {
			opErr = fmt.Errorf("%w：%s", game.ErrUnknownRole, roleID)
			return
		}
		ss.forced.Set(playerID, roleID)
		ticket = ss.writes.ticket()
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	zap.L().Info("设置强制角色", zap.String("player_id", playerID), zap.String("role_id", roleID))

	return ss.persist(ticket, "force_role", func(p Persister) error {
		return p.SaveForcedRole(ctx, playerID, roleID)
	})
}

func (ss *SessionService) GetForcedRole(playerID string) (string, bool, error) {
	var (
		roleID string
		ok     bool
	)

	err := ss.submit(func() {
		roleID, ok = ss.forced.Get(playerID)
	})

	return roleID, ok, err
}

func (ss *SessionService) ClearForcedRole(ctx context.Context, playerID string) error {
	var (
		existed bool
		ticket  uint64
	)

	if err := ss.submit(func() {
		existed = ss.forced.Clear(playerID)
		if existed {
			ticket = ss.writes.ticket()
		}
	}); err != nil {
		return err
	}
	if !existed {
		return ErrNoForcedRole
	}

	zap.L().Info("清除强制角色", zap.String("player_id", playerID))

	return ss.persist(ticket, "clear_forced_role", func(p Persister) error {
		return p.DeleteForcedRole(ctx, playerID)
	})
}

func (ss *SessionService) Roles() ([]dto.RoleView, error) {
	var out []dto.RoleView

	err := ss.submit(func() {
		all := ss.registry.All()
		out = make([]dto.RoleView, 0, len(all))
		for _, r := range all {
			out = append(out, dto.RoleView{
				ID:       r.ID,
				Faction:  string(r.Faction()),
				Pool:     string(r.Pool),
				Special:  r.Special,
				Enabled:  ss.registry.IsEnabled(r),
				Innocent: r.Innocent,
			})
		}
	})

	return out, err
}

func (ss *SessionService) SetRoleEnabled(ctx context.Context, roleID string, enabled bool) error {
	var (
		opErr  error
		ticket uint64
	)

	if err := ss.submit(func() {
		opErr = ss.registry.SetEnabled(roleID, enabled)
		if opErr == nil {
			ticket = ss.writes.ticket()
		}
	}); err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	return ss.persist(ticket, "set_role_enabled", func(p Persister) error {
		return p.SaveRoleToggle(ctx, roleID, enabled)
	})
}

func (ss *SessionService) Settings() (game.Settings, error) {
	var out game.Settings

	err := ss.submit(func() {
		out = *ss.settings
	})

	return out, err
}

// updateSettings 在模拟协程上修改规则，成功后按生效顺序保存快照
func (ss *SessionService) updateSettings(ctx context.Context, op string, fn func(s *game.Settings) error) error {
	var (
		opErr    error
		snapshot game.Settings
		ticket   uint64
	)

	if err := ss.submit(func() {
		if opErr = fn(ss.settings); opErr != nil {
			return
		}
		snapshot = *ss.settings
		ticket = ss.writes.ticket()
	}); err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	zap.L().Info("对局规则已更新", zap.String("op", op))

	return ss.persist(ticket, op, func(p Persister) error {
		return p.SaveSettings(ctx, snapshot)
	})
}

func (ss *SessionService) SetBackfireChance(ctx context.Context, chance float64) error {
	return ss.updateSettings(ctx, "set_backfire_chance", func(s *game.Settings) error {
		return s.SetBackfireChance(chance)
	})
}

func (ss *SessionService) SetDivisors(ctx context.Context, vigilante, neutral int) error {
	return ss.updateSettings(ctx, "set_divisors", func(s *game.Settings) error {
		return s.SetDivisors(vigilante, neutral)
	})
}

func (ss *SessionService) SetBounds(ctx context.Context, enabled bool) error {
	return ss.updateSettings(ctx, "set_bounds", func(s *game.Settings) error {
		s.SetBounds(enabled)
		return nil
	})
}

func (ss *SessionService) SetShootInnocentPunishment(ctx context.Context, mode string) error {
	return ss.updateSettings(ctx, "set_shoot_innocent_punishment", func(s *game.Settings) error {
		return s.SetShootInnocentPunishment(mode)
	})
}

func (ss *SessionService) SetAutostart(ctx context.Context, seconds int) error {
	return ss.updateSettings(ctx, "set_autostart", func(s *game.Settings) error {
		return s.SetAutostart(seconds)
	})
}

func (ss *SessionService) StartRound(sessionID string) (dto.StartRoundResponse, error) {
	var resp dto.StartRoundResponse

	err := ss.withSession(sessionID, func(sess *session) error {
		a, err := sess.start()
		if err != nil {
			return err
		}

		resp = dto.StartRoundResponse{
			KillerCount: a.KillerCount,
			Players:     len(a.Roles),
		}
		return nil
	})

	return resp, err
}

func (ss *SessionService) StopRound(sessionID string) (dto.StopRoundResponse, error) {
	var resp dto.StopRoundResponse

	err := ss.withSession(sessionID, func(sess *session) error {
		resp.WasActive = sess.controller.Stop()
		sess.autostartLeft = -1
		return nil
	})

	return resp, err
}

func (ss *SessionService) GiveKey(sessionID, playerID, room string) error {
	return ss.withSession(sessionID, func(sess *session) error {
		if _, ok := sess.members[playerID]; !ok {
			return fmt.Errorf("%w：%s", game.ErrUnknownPlayer, playerID)
		}

		return sess.controller.GiveKey(playerID, room)
	})
}
