package game

type WinStatus string

const (
	WIN_NONE         WinStatus = "None"
	WIN_FACTION_A    WinStatus = "PassengersWin"
	WIN_FACTION_B    WinStatus = "KillersWin"
	WIN_TIME_EXPIRED WinStatus = "TimeExpired"
	WIN_NEUTRAL      WinStatus = "NeutralWin"
	// BLOCKED 强制本 tick 视为尚未分出胜负
	WIN_BLOCKED WinStatus = "Blocked"
)

// WinResult 中 Winner 仅在 WIN_NEUTRAL 时有值
type WinResult struct {
	Status WinStatus `json:"status"`
	Winner string    `json:"winner,omitempty"`
}

// Decided 表示一局应当结束
func (wr WinResult) Decided() bool {
	return wr.Status != WIN_NONE && wr.Status != WIN_BLOCKED && wr.Status != ""
}

// BaselineStatus 只看计时器和阵营存活情况，按顺序短路
func BaselineStatus(players map[string]*PlayerState, timeLeftTicks int) WinStatus {
	if timeLeftTicks <= 0 {
		return WIN_TIME_EXPIRED
	}

	civiliansAlive := 0
	killersAlive := 0

	for _, p := range players {
		if !p.Participating() {
			continue
		}

		switch p.Faction() {
		case FACTION_CIVILIAN:
			civiliansAlive++
		case FACTION_KILLER:
			killersAlive++
		}
	}

	if civiliansAlive == 0 {
		return WIN_FACTION_B
	}

	if killersAlive == 0 {
		return WIN_FACTION_A
	}

	return WIN_NONE
}

// EvaluateWin 计算基线结果后交给 check-win-condition 监听链，第一个给出结果的监听器决定最终结果
func EvaluateWin(hooks *Hooks, sessionID string, players map[string]*PlayerState, timeLeftTicks int) WinResult {
	baseline := BaselineStatus(players, timeLeftTicks)

	if hooks != nil {
		override, ok := hooks.askCheckWinCondition(WinCheckEvent{
			SessionID:     sessionID,
			Players:       players,
			TimeLeftTicks: timeLeftTicks,
			Status:        baseline,
		})
		if ok {
			if override.Status == "" {
				override.Status = WIN_NONE
			}
			return override
		}
	}

	return WinResult{Status: baseline}
}
