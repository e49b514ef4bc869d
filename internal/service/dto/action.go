package dto

// 玩家通过 WebSocket 发来的第一条消息必须是 JoinGame
type JoinGameRequest struct {
	SessionID  string `json:"session_id"`
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name"`
}

type JoinGameResponse struct {
	SessionID string     `json:"session_id"`
	Joiner    PlayerView `json:"joiner"`
	// 对局进行中时为 true，加入者可能只能观战
	RoundActive bool `json:"round_active"`
}

type PlayerJoinedResponse struct {
	Player PlayerView `json:"player"`
}

type PlayerLeftResponse struct {
	PlayerID string `json:"player_id"`
}

type WelcomeResponse struct {
	RoleID         string `json:"role_id"`
	Faction        string `json:"faction"`
	Color          int    `json:"color"`
	KillerCount    int    `json:"killer_count"`
	NonKillerCount int    `json:"non_killer_count"`
	Balance        int    `json:"balance"`
}

type ShopItem struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Item     string `json:"item"`
	Price    int    `json:"price"`
	Category string `json:"category"`
	// 剩余冷却 tick 数，0 表示可购买
	CooldownLeft int `json:"cooldown_left"`
	// -1 表示不限量
	Stock int `json:"stock"`
}

type ShopResponse struct {
	Balance int        `json:"balance"`
	Items   []ShopItem `json:"items"`
}

type PurchaseRequest struct {
	Index int `json:"index"`
}

type PurchaseResponse struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Balance int    `json:"balance"`
}

type ShootRequest struct {
	VictimID string `json:"victim_id"`
}

type KillRequest struct {
	VictimID string `json:"victim_id"`
}

type ShotResponse struct {
	ShooterID        string `json:"shooter_id"`
	VictimID         string `json:"victim_id"`
	Backfired        bool   `json:"backfired"`
	VictimEliminated bool   `json:"victim_eliminated"`
	Punishment       string `json:"punishment,omitempty"`
}

type EliminatedResponse struct {
	PlayerID string `json:"player_id"`
	Cause    string `json:"cause"`
}

type RoundEndResponse struct {
	Status  string       `json:"status"`
	Winner  string       `json:"winner,omitempty"`
	Players []PlayerView `json:"players"`
}
