package game

import (
	"strings"
)

// 每秒 tick 数
const TICKS_PER_SECOND = 20

// 误伤平民的惩罚方式
type PunishMode string

const (
	PUNISH_MODE_DEFAULT            PunishMode = "default"
	PUNISH_MODE_PREVENT_GUN_PICKUP PunishMode = "prevent_gun_pickup"
	PUNISH_MODE_KILL_SHOOTER       PunishMode = "kill_shooter"
)

func ParsePunishMode(s string) (PunishMode, error) {
	switch PunishMode(strings.ToLower(strings.TrimSpace(s))) {
	case PUNISH_MODE_DEFAULT:
		return PUNISH_MODE_DEFAULT, nil
	case PUNISH_MODE_PREVENT_GUN_PICKUP:
		return PUNISH_MODE_PREVENT_GUN_PICKUP, nil
	case PUNISH_MODE_KILL_SHOOTER:
		return PUNISH_MODE_KILL_SHOOTER, nil
	}

	return "", newError(KIND_VALIDATION, ErrInvalidArgument.Code, "未知的惩罚方式：%s", s)
}

// Settings 是所有对局共享的规则参数，可由管理员在运行时修改
type Settings struct {
	Selector SelectorConfig `json:"selector"`

	MinPlayers int `json:"min_players"`
	RoundTicks int `json:"round_ticks"`

	StartingMoney int `json:"starting_money"`
	// 超出杀手比例的每个玩家带来的额外开局资金，按比例向下取整
	ExcessBonus int `json:"excess_bonus"`

	PassiveIncomePeriod  int     `json:"passive_income_period"`
	PassiveIncomeAmount  int     `json:"passive_income_amount"`
	PassiveIncomeFaction Faction `json:"passive_income_faction"`

	BackfireChance float64 `json:"backfire_chance"`
	// 只保存并转交给外部世界协作方，引擎本身不读取
	BoundsEnabled           bool       `json:"bounds_enabled"`
	ShootInnocentPunishment PunishMode `json:"shoot_innocent_punishment"`
	AutostartSeconds        int        `json:"autostart_seconds"`
}

func DefaultSettings() Settings {
	return Settings{
		Selector: SelectorConfig{
			KillerRatio:    6,
			VigilanteCount: 1,
			NeutralCount:   1,
		},
		MinPlayers:              1,
		RoundTicks:              10 * 60 * TICKS_PER_SECOND,
		StartingMoney:           100,
		ExcessBonus:             50,
		PassiveIncomePeriod:     200,
		PassiveIncomeAmount:     5,
		PassiveIncomeFaction:    FACTION_CIVILIAN,
		ShootInnocentPunishment: PUNISH_MODE_DEFAULT,
	}
}

// StartingBalance = 基础资金 + 超出比例人数 * 奖励 / 比例
func (s *Settings) StartingBalance(n int) int {
	ratio := s.Selector.KillerRatio
	if ratio < 1 {
		ratio = 1
	}

	excess := n % ratio

	return s.StartingMoney + excess*s.ExcessBonus/ratio
}

func (s *Settings) SetBackfireChance(chance float64) error {
	if chance < 0 || chance > 1 {
		return newError(KIND_VALIDATION, ErrInvalidArgument.Code, "走火概率必须在 0 到 1 之间：%v", chance)
	}

	s.BackfireChance = chance
	return nil
}

func (s *Settings) SetKillerRatio(ratio int) error {
	if ratio < 1 {
		return newError(KIND_VALIDATION, ErrInvalidArgument.Code, "杀手比例必须大于 0：%d", ratio)
	}

	s.Selector.KillerRatio = ratio
	return nil
}

// SetDivisors 设置义警和中立的人数除数，0 表示关闭
func (s *Settings) SetDivisors(vigilante, neutral int) error {
	if vigilante < 0 || neutral < 0 {
		return newError(KIND_VALIDATION, ErrInvalidArgument.Code, "除数不能为负数：%d, %d", vigilante, neutral)
	}

	s.Selector.VigilanteDivisor = vigilante
	s.Selector.NeutralDivisor = neutral
	return nil
}

func (s *Settings) SetBounds(enabled bool) {
	s.BoundsEnabled = enabled
}

func (s *Settings) SetShootInnocentPunishment(mode string) error {
	m, err := ParsePunishMode(mode)
	if err != nil {
		return err
	}

	s.ShootInnocentPunishment = m
	return nil
}

func (s *Settings) SetAutostart(seconds int) error {
	if seconds < 0 {
		return newError(KIND_VALIDATION, ErrInvalidArgument.Code, "自动开始秒数不能为负数：%d", seconds)
	}

	s.AutostartSeconds = seconds
	return nil
}
