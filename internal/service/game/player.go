package game

// 出局原因
type EliminationCause string

const (
	CAUSE_NONE     EliminationCause = ""
	CAUSE_KILLED   EliminationCause = "Killed"
	CAUSE_SHOT     EliminationCause = "Shot"
	CAUSE_BACKFIRE EliminationCause = "Backfire"
	CAUSE_PUNISHED EliminationCause = "Punished"
	CAUSE_POISONED EliminationCause = "Poisoned"
	CAUSE_ESCAPED  EliminationCause = "Escaped"
)

// PlayerState 是玩家在一局中的状态，开局时创建，结束时丢弃
type PlayerState struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Role         *Role            `json:"role,omitempty"`
	Alive        bool             `json:"alive"`
	Cause        EliminationCause `json:"cause,omitempty"`
	EliminatedAt int              `json:"eliminated_at,omitempty"`

	// 中途加入或出局后重连的玩家只能观战
	Spectator bool `json:"spectator"`
	// 误伤平民后被禁止再捡枪
	GunBanned bool `json:"gun_banned"`
}

func (p *PlayerState) Faction() Faction {
	return FactionOf(p.Role)
}

// Participating 表示仍在场上、计入胜负判定
func (p *PlayerState) Participating() bool {
	return p.Alive && !p.Spectator
}

// RosterEntry 是外部花名册里的一条连接记录
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ForcedRoles 是管理员设置的强制角色表，跨局保留
type ForcedRoles struct {
	roles map[string]string
}

func NewForcedRoles() *ForcedRoles {
	return &ForcedRoles{
		roles: make(map[string]string),
	}
}

// Set 会覆盖该玩家之前的强制角色
func (fr *ForcedRoles) Set(playerID, roleID string) {
	fr.roles[playerID] = roleID
}

func (fr *ForcedRoles) Get(playerID string) (string, bool) {
	id, ok := fr.roles[playerID]
	return id, ok
}

func (fr *ForcedRoles) Clear(playerID string) bool {
	if _, ok := fr.roles[playerID]; !ok {
		return false
	}

	delete(fr.roles, playerID)
	return true
}

func (fr *ForcedRoles) All() map[string]string {
	out := make(map[string]string, len(fr.roles))
	for k, v := range fr.roles {
		out[k] = v
	}

	return out
}

func (fr *ForcedRoles) Len() int {
	return len(fr.roles)
}
