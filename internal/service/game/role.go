package game

import (
	"go.uber.org/zap"
)

// 阵营由角色标志推导，不单独存储
type Faction string

const (
	FACTION_CIVILIAN Faction = "Civilian"
	FACTION_KILLER   Faction = "Killer"
	FACTION_NEUTRAL  Faction = "Neutral"
)

// 角色参与的分配阶段
type RolePool string

const (
	POOL_CIVILIAN  RolePool = "civilian"
	POOL_KILLER    RolePool = "killer"
	POOL_VIGILANTE RolePool = "vigilante"
	POOL_NEUTRAL   RolePool = "neutral"
)

// 心情显示模式
type MoodType string

const (
	MOOD_NONE MoodType = "None"
	MOOD_REAL MoodType = "Real"
	MOOD_FAKE MoodType = "Fake"
)

// 首个任务的等待时间为“永不”
const FIRST_TASK_NEVER = -1

// 内置角色 ID
const (
	ROLE_CIVILIAN           = "mtrain:civilian"
	ROLE_VIGILANTE          = "mtrain:vigilante"
	ROLE_KILLER             = "mtrain:killer"
	ROLE_LOOSE_END          = "mtrain:loose_end"
	ROLE_NO_ROLE            = "mtrain:no_role"
	ROLE_DISCOVERY_CIVILIAN = "mtrain:discovery_civilian"
)

// Role 注册后不可变，唯一可变的是注册表里的启用标志
type Role struct {
	ID             string   `json:"id"`
	Color          int      `json:"color"`
	Innocent       bool     `json:"innocent"`
	CanUseKiller   bool     `json:"can_use_killer"`
	Mood           MoodType `json:"mood"`
	FirstTaskTicks int      `json:"first_task_ticks"`
	Special        bool     `json:"special"`
	Pool           RolePool `json:"pool"`
}

func (r *Role) Faction() Faction {
	switch {
	case r.Innocent:
		return FACTION_CIVILIAN
	case r.CanUseKiller:
		return FACTION_KILLER
	default:
		return FACTION_NEUTRAL
	}
}

// FactionOf 对空角色返回空阵营
func FactionOf(r *Role) Faction {
	if r == nil {
		return ""
	}

	return r.Faction()
}

type RoleRegistry struct {
	roles    []*Role
	byID     map[string]*Role
	disabled map[string]bool
}

func NewRoleRegistry() *RoleRegistry {
	return &RoleRegistry{
		roles:    make([]*Role, 0),
		byID:     make(map[string]*Role),
		disabled: make(map[string]bool),
	}
}

// Register 按 ID 幂等，重复注册返回已有的角色
func (rr *RoleRegistry) Register(role Role) *Role {
	if existing, ok := rr.byID[role.ID]; ok {
		return existing
	}

	r := role
	rr.roles = append(rr.roles, &r)
	rr.byID[r.ID] = &r

	return &r
}

func (rr *RoleRegistry) Get(id string) (*Role, bool) {
	r, ok := rr.byID[id]
	return r, ok
}

// All 返回注册顺序的角色目录
func (rr *RoleRegistry) All() []*Role {
	out := make([]*Role, len(rr.roles))
	copy(out, rr.roles)
	return out
}

func (rr *RoleRegistry) SetEnabled(id string, enabled bool) error {
	r, ok := rr.byID[id]
	if !ok {
		return newError(KIND_VALIDATION, ErrUnknownRole.Code, "未知的角色：%s", id)
	}

	if r.Special {
		if enabled {
			return nil
		}
		return ErrSpecialRole
	}

	if enabled {
		delete(rr.disabled, id)
	} else {
		rr.disabled[id] = true
	}

	zap.L().Info(
		"角色启用状态变更",
		zap.String("role_id", id),
		zap.Bool("enabled", enabled),
	)

	return nil
}

// IsEnabled 特殊角色永远视为启用
func (rr *RoleRegistry) IsEnabled(r *Role) bool {
	if r == nil {
		return false
	}
	if r.Special {
		return true
	}

	return !rr.disabled[r.ID]
}

// DisabledIDs 用于持久化
func (rr *RoleRegistry) DisabledIDs() []string {
	out := make([]string, 0, len(rr.disabled))
	for _, r := range rr.roles {
		if rr.disabled[r.ID] {
			out = append(out, r.ID)
		}
	}

	return out
}

// Assignable 返回某个分配阶段可用的候选角色
func (rr *RoleRegistry) Assignable(pool RolePool) []*Role {
	out := make([]*Role, 0)
	for _, r := range rr.roles {
		if r.Special || r.Pool != pool || !rr.IsEnabled(r) {
			continue
		}
		out = append(out, r)
	}

	return out
}

// Baseline 是兜底的平民角色，不受启用标志影响
func (rr *RoleRegistry) Baseline() *Role {
	if r, ok := rr.byID[ROLE_CIVILIAN]; ok {
		return r
	}

	return rr.Register(civilianRole)
}

var civilianRole = Role{
	ID:             ROLE_CIVILIAN,
	Color:          0x36E51B,
	Innocent:       true,
	Mood:           MOOD_REAL,
	FirstTaskTicks: 20 * 60,
	Pool:           POOL_CIVILIAN,
}

func RegisterDefaultRoles(rr *RoleRegistry) {
	rr.Register(civilianRole)
	rr.Register(Role{
		ID:             ROLE_VIGILANTE,
		Color:          0x1B8AE5,
		Innocent:       true,
		Mood:           MOOD_REAL,
		FirstTaskTicks: 20 * 60,
		Pool:           POOL_VIGILANTE,
	})
	rr.Register(Role{
		ID:             ROLE_KILLER,
		Color:          0xC13838,
		CanUseKiller:   true,
		Mood:           MOOD_FAKE,
		FirstTaskTicks: FIRST_TASK_NEVER,
		Pool:           POOL_KILLER,
	})
	rr.Register(Role{
		ID:             ROLE_LOOSE_END,
		Color:          0x9F0000,
		Mood:           MOOD_NONE,
		FirstTaskTicks: FIRST_TASK_NEVER,
		Pool:           POOL_NEUTRAL,
	})

	// 以下为占位角色，不参与随机分配
	rr.Register(Role{
		ID:             ROLE_NO_ROLE,
		Color:          0xFFFFFF,
		Innocent:       true,
		Mood:           MOOD_NONE,
		FirstTaskTicks: FIRST_TASK_NEVER,
		Special:        true,
	})
	rr.Register(Role{
		ID:             ROLE_DISCOVERY_CIVILIAN,
		Color:          0x36E51B,
		Innocent:       true,
		Mood:           MOOD_NONE,
		FirstTaskTicks: FIRST_TASK_NEVER,
		Special:        true,
	})
}
