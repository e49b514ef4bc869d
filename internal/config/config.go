package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mystery-train-be/internal/service/game"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 为空时不做持久化
	StorePath      string `mapstructure:"store_path"`
	TickIntervalMs int    `mapstructure:"tick_interval_ms"`

	// 前端静态文件目录，为空时不挂载
	StaticDir string `mapstructure:"static_dir"`

	Game GameConfig `mapstructure:"game"`
}

// GameConfig 是对局规则的初始值，运行时的修改会写入存储并在重启后覆盖这里的值
type GameConfig struct {
	KillerCount      int `mapstructure:"killer_count"`
	KillerRatio      int `mapstructure:"killer_ratio"`
	VigilanteCount   int `mapstructure:"vigilante_count"`
	VigilanteDivisor int `mapstructure:"vigilante_divisor"`
	NeutralCount     int `mapstructure:"neutral_count"`
	NeutralDivisor   int `mapstructure:"neutral_divisor"`

	MinPlayers   int `mapstructure:"min_players"`
	RoundSeconds int `mapstructure:"round_seconds"`

	StartingMoney        int    `mapstructure:"starting_money"`
	ExcessBonus          int    `mapstructure:"excess_bonus"`
	PassiveIncomeSeconds int    `mapstructure:"passive_income_seconds"`
	PassiveIncomeAmount  int    `mapstructure:"passive_income_amount"`
	PassiveIncomeFaction string `mapstructure:"passive_income_faction"`

	BackfireChance          float64 `mapstructure:"backfire_chance"`
	BoundsEnabled           bool    `mapstructure:"bounds_enabled"`
	ShootInnocentPunishment string  `mapstructure:"shoot_innocent_punishment"`
	AutostartSeconds        int     `mapstructure:"autostart_seconds"`

	InventorySlots int `mapstructure:"inventory_slots"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	c, err := LoadConfig(".")
	if err != nil {
		panic(err)
	}

	return c
}

// LoadConfig 依次在给定目录中查找 app_config.json，找不到时全部使用默认值
func LoadConfig(paths ...string) (*AppConfig, error) {
	v := viper.New()

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("MTRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("store_path", "mystery_train.db")
	v.SetDefault("tick_interval_ms", 1000/game.TICKS_PER_SECOND)
	v.SetDefault("static_dir", "")

	v.SetDefault("game.killer_count", 0)
	v.SetDefault("game.killer_ratio", 6)
	v.SetDefault("game.vigilante_count", 1)
	v.SetDefault("game.vigilante_divisor", 6)
	v.SetDefault("game.neutral_count", 1)
	v.SetDefault("game.neutral_divisor", 8)
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.round_seconds", 600)
	v.SetDefault("game.starting_money", 100)
	v.SetDefault("game.excess_bonus", 50)
	v.SetDefault("game.passive_income_seconds", 10)
	v.SetDefault("game.passive_income_amount", 5)
	v.SetDefault("game.passive_income_faction", string(game.FACTION_CIVILIAN))
	v.SetDefault("game.backfire_chance", 0.0)
	v.SetDefault("game.bounds_enabled", true)
	v.SetDefault("game.shoot_innocent_punishment", string(game.PUNISH_MODE_DEFAULT))
	v.SetDefault("game.autostart_seconds", 0)
	v.SetDefault("game.inventory_slots", game.DEFAULT_INVENTORY_SLOTS)
}

func (c *AppConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("端口超出范围: %d", c.Port)
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick 间隔必须大于 0: %d", c.TickIntervalMs)
	}
	if c.Game.InventorySlots <= 0 {
		return fmt.Errorf("背包格数必须大于 0: %d", c.Game.InventorySlots)
	}

	_, err := c.Game.ToSettings()
	return err
}

func (c *AppConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// ToSettings 把配置转换为引擎的规则参数，并复用引擎自身的校验
func (gc GameConfig) ToSettings() (game.Settings, error) {
	s := game.DefaultSettings()

	s.Selector = game.SelectorConfig{
		KillerCount:    gc.KillerCount,
		VigilanteCount: gc.VigilanteCount,
		NeutralCount:   gc.NeutralCount,
	}
	if err := s.SetKillerRatio(gc.KillerRatio); err != nil {
		return s, err
	}
	if err := s.SetDivisors(gc.VigilanteDivisor, gc.NeutralDivisor); err != nil {
		return s, err
	}

	s.MinPlayers = gc.MinPlayers
	s.RoundTicks = gc.RoundSeconds * game.TICKS_PER_SECOND
	s.StartingMoney = gc.StartingMoney
	s.ExcessBonus = gc.ExcessBonus
	s.PassiveIncomePeriod = gc.PassiveIncomeSeconds * game.TICKS_PER_SECOND
	s.PassiveIncomeAmount = gc.PassiveIncomeAmount

	switch f := game.Faction(gc.PassiveIncomeFaction); f {
	case game.FACTION_CIVILIAN, game.FACTION_KILLER, game.FACTION_NEUTRAL:
		s.PassiveIncomeFaction = f
	default:
		return s, fmt.Errorf("未知的阵营: %s", gc.PassiveIncomeFaction)
	}

	if err := s.SetBackfireChance(gc.BackfireChance); err != nil {
		return s, err
	}
	s.SetBounds(gc.BoundsEnabled)
	if err := s.SetShootInnocentPunishment(gc.ShootInnocentPunishment); err != nil {
		return s, err
	}
	if err := s.SetAutostart(gc.AutostartSeconds); err != nil {
		return s, err
	}

	if s.RoundTicks <= 0 {
		return s, fmt.Errorf("对局时长必须大于 0: %d", gc.RoundSeconds)
	}

	return s, nil
}
