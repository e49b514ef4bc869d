package game

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

type SelectorConfig struct {
	// 大于 0 时使用固定杀手人数，否则按 KillerRatio 计算
	KillerCount int
	KillerRatio int

	// Divisor 为 0 表示不分配该类角色
	VigilanteCount   int
	VigilanteDivisor int
	NeutralCount     int
	NeutralDivisor   int
}

type Assignment struct {
	Roles map[string]*Role
	// 实际分配的杀手阵营人数，包含强制角色
	KillerCount int
}

// KillerTarget 计算目标杀手人数，只要有玩家就至少一个
func KillerTarget(n int, cfg SelectorConfig) int {
	if n <= 0 {
		return 0
	}

	target := cfg.KillerCount
	if target <= 0 {
		ratio := cfg.KillerRatio
		if ratio < 1 {
			ratio = 1
		}
		target = n / ratio
	}

	return min(max(target, 1), n)
}

func slotCap(n, count, divisor int) int {
	if divisor <= 0 || count <= 0 {
		return 0
	}

	return min(count, n/divisor)
}

type RoleSelector struct {
	registry *RoleRegistry
	rng      *rand.Rand

	// 上一次分配中当过杀手的玩家，下一次优先不选
	lastKillers map[string]bool
}

func NewRoleSelector(registry *RoleRegistry, rng *rand.Rand) *RoleSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &RoleSelector{
		registry:    registry,
		rng:         rng,
		lastKillers: make(map[string]bool),
	}
}

// Assign 按固定顺序分配：强制角色、杀手、义警、中立、平民
func (rs *RoleSelector) Assign(roster []string, forced *ForcedRoles, cfg SelectorConfig) Assignment {
	n := len(roster)
	if n == 0 {
		return Assignment{Roles: make(map[string]*Role)}
	}

	roles := make(map[string]*Role, n)

	var (
		forcedKillers    int
		forcedVigilantes int
		forcedNeutrals   int
	)

	// 1. 强制角色
	if forced != nil {
		for _, id := range roster {
			roleID, ok := forced.Get(id)
			if !ok {
				continue
			}

			role, ok := rs.registry.Get(roleID)
			if !ok {
				zap.L().Warn(
					"强制角色不存在，已跳过",
					zap.String("player_id", id),
					zap.String("role_id", roleID),
				)
				continue
			}

			roles[id] = role

			switch {
			case role.Faction() == FACTION_KILLER:
				forcedKillers++
			case role.Pool == POOL_VIGILANTE:
				forcedVigilantes++
			case role.Faction() == FACTION_NEUTRAL:
				forcedNeutrals++
			}
		}
	}

	// 2. 杀手
	killerNeed := KillerTarget(n, cfg) - forcedKillers
	rs.fill(roster, roles, POOL_KILLER, killerNeed, true)

	// 3. 义警
	vigilanteNeed := slotCap(n, cfg.VigilanteCount, cfg.VigilanteDivisor) - forcedVigilantes
	rs.fill(roster, roles, POOL_VIGILANTE, vigilanteNeed, false)

	// 4. 中立
	neutralNeed := slotCap(n, cfg.NeutralCount, cfg.NeutralDivisor) - forcedNeutrals
	rs.fill(roster, roles, POOL_NEUTRAL, neutralNeed, false)

	// 5. 剩余全部为平民
	baseline := rs.registry.Baseline()
	for _, id := range roster {
		if roles[id] == nil {
			roles[id] = baseline
		}
	}

	killers := 0
	rs.lastKillers = make(map[string]bool)
	for _, id := range roster {
		if roles[id].Faction() == FACTION_KILLER {
			killers++
			rs.lastKillers[id] = true
		}
	}

	return Assignment{
		Roles:       roles,
		KillerCount: killers,
	}
}

// fill 从未分配的玩家中挑选 need 个，分配 pool 中随机的已启用角色
func (rs *RoleSelector) fill(roster []string, roles map[string]*Role, pool RolePool, need int, avoidRepeat bool) {
	if need <= 0 {
		return
	}

	candidates := rs.registry.Assignable(pool)
	if len(candidates) == 0 {
		zap.L().Debug(
			"没有可用的候选角色",
			zap.String("pool", string(pool)),
		)
		return
	}

	free := make([]string, 0, len(roster))
	for _, id := range roster {
		if roles[id] == nil {
			free = append(free, id)
		}
	}

	rs.rng.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})

	if avoidRepeat && len(rs.lastKillers) > 0 {
		fresh := make([]string, 0, len(free))
		repeat := make([]string, 0)
		for _, id := range free {
			if rs.lastKillers[id] {
				repeat = append(repeat, id)
			} else {
				fresh = append(fresh, id)
			}
		}
		free = append(fresh, repeat...)
	}

	for i := 0; i < need && i < len(free); i++ {
		roles[free[i]] = candidates[rs.rng.IntN(len(candidates))]
	}
}
