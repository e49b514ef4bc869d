package dto

// 会话中的玩家信息，角色只在对局结束或本人视角下给出
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Online    bool   `json:"online"`
	RoleID    string `json:"role_id,omitempty"`
	Alive     bool   `json:"alive"`
	Cause     string `json:"cause,omitempty"`
	Spectator bool   `json:"spectator"`
}

type CreateSessionRequest struct {
	Name string `json:"name"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type SessionSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
}

type SessionDetail struct {
	SessionSummary

	TimeLeft      int               `json:"time_left"`
	KillerCount   int               `json:"killer_count"`
	AutostartLeft int               `json:"autostart_left"`
	Roster        []PlayerView      `json:"roster"`
	LastRound     *RoundEndResponse `json:"last_round,omitempty"`
}

type StartRoundResponse struct {
	KillerCount int `json:"killer_count"`
	Players     int `json:"players"`
}

type StopRoundResponse struct {
	WasActive bool `json:"was_active"`
}

type GiveKeyRequest struct {
	PlayerID string `json:"player_id"`
	Room     string `json:"room"`
}

type ForceRoleRequest struct {
	RoleID string `json:"role_id"`
}

type ForcedRoleResponse struct {
	PlayerID string `json:"player_id"`
	RoleID   string `json:"role_id"`
}

type RoleView struct {
	ID       string `json:"id"`
	Faction  string `json:"faction"`
	Pool     string `json:"pool"`
	Special  bool   `json:"special"`
	Enabled  bool   `json:"enabled"`
	Innocent bool   `json:"innocent"`
}

type SetRoleEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type SetBackfireRequest struct {
	Chance float64 `json:"chance"`
}

type SetDivisorsRequest struct {
	Vigilante int `json:"vigilante"`
	Neutral   int `json:"neutral"`
}

type SetBoundsRequest struct {
	Enabled bool `json:"enabled"`
}

type SetPunishmentRequest struct {
	Mode string `json:"mode"`
}

type SetAutostartRequest struct {
	Seconds int `json:"seconds"`
}
