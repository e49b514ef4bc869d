package game

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// 一局游戏的阶段，ENDED 只是瞬时状态
type Phase string

const (
	PHASE_INACTIVE Phase = "Inactive"
	PHASE_ACTIVE   Phase = "Active"
	PHASE_ENDED    Phase = "Ended"
)

// WelcomeMessage 在开局时发给每个玩家
type WelcomeMessage struct {
	SessionID      string `json:"session_id"`
	PlayerID       string `json:"player_id"`
	RoleID         string `json:"role_id"`
	KillerCount    int    `json:"killer_count"`
	NonKillerCount int    `json:"non_killer_count"`
}

// RoundEnd 是一局结束时保存下来的数据
type RoundEnd struct {
	SessionID string        `json:"session_id"`
	Status    WinStatus     `json:"status"`
	Winner    string        `json:"winner,omitempty"`
	Roster    []PlayerState `json:"roster"`
	EndedAt   int           `json:"ended_at"`
}

// Notifier 负责把消息送到玩家手里，传输方式由调用方决定
type Notifier interface {
	Welcome(msg WelcomeMessage)
	RoundEnded(end RoundEnd)
}

type ShotOutcome struct {
	Backfired        bool       `json:"backfired"`
	VictimEliminated bool       `json:"victim_eliminated"`
	Punishment       PunishKind `json:"punishment,omitempty"`
}

type ControllerDeps struct {
	Registry  *RoleRegistry
	Hooks     *Hooks
	Forced    *ForcedRoles
	Settings  *Settings
	Inventory Inventory
	Notifier  Notifier
	Rng       *rand.Rand
}

// Controller 是单个会话的对局状态机，所有方法都必须在模拟线程上调用
type Controller struct {
	sessionID string

	registry  *RoleRegistry
	hooks     *Hooks
	forced    *ForcedRoles
	settings  *Settings
	inventory Inventory
	notifier  Notifier
	rng       *rand.Rand

	selector *RoleSelector
	ledger   *Ledger
	shop     *Shop

	phase   Phase
	players map[string]*PlayerState
	order   []string

	now         int
	elapsed     int
	timeLeft    int
	killerCount int

	lastEnd *RoundEnd
}

func NewController(sessionID string, deps ControllerDeps) *Controller {
	if deps.Registry == nil {
		deps.Registry = NewRoleRegistry()
		RegisterDefaultRoles(deps.Registry)
	}
	if deps.Hooks == nil {
		deps.Hooks = NewHooks()
	}
	if deps.Forced == nil {
		deps.Forced = NewForcedRoles()
	}
	if deps.Settings == nil {
		s := DefaultSettings()
		deps.Settings = &s
	}
	if deps.Inventory == nil {
		deps.Inventory = NewMemoryInventory(DEFAULT_INVENTORY_SLOTS)
	}
	if deps.Rng == nil {
		deps.Rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	ledger := NewLedger()

	return &Controller{
		sessionID: sessionID,
		registry:  deps.Registry,
		hooks:     deps.Hooks,
		forced:    deps.Forced,
		settings:  deps.Settings,
		inventory: deps.Inventory,
		notifier:  deps.Notifier,
		rng:       deps.Rng,
		selector:  NewRoleSelector(deps.Registry, deps.Rng),
		ledger:    ledger,
		shop:      NewShop(sessionID, deps.Hooks, ledger, deps.Inventory),
		phase:     PHASE_INACTIVE,
		players:   make(map[string]*PlayerState),
	}
}

func (c *Controller) SessionID() string {
	return c.sessionID
}

func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) Now() int {
	return c.now
}

func (c *Controller) TimeLeft() int {
	return c.timeLeft
}

func (c *Controller) KillerCount() int {
	return c.killerCount
}

func (c *Controller) Ledger() *Ledger {
	return c.ledger
}

func (c *Controller) Player(id string) (*PlayerState, bool) {
	p, ok := c.players[id]
	return p, ok
}

// Players 按开局顺序返回快照
func (c *Controller) Players() []PlayerState {
	out := make([]PlayerState, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.players[id])
	}

	return out
}

// LastRoundEnd 返回最近一次结束的对局数据
func (c *Controller) LastRoundEnd() (RoundEnd, bool) {
	if c.lastEnd == nil {
		return RoundEnd{}, false
	}

	return *c.lastEnd, true
}

// Start 分配角色、发放开局资金、通知所有玩家
func (c *Controller) Start(roster []RosterEntry) (Assignment, error) {
	if c.phase == PHASE_ACTIVE {
		return Assignment{}, ErrRoundActive
	}

	ids := make([]string, 0, len(roster))
	names := make(map[string]string, len(roster))
	for _, r := range roster {
		if _, dup := names[r.ID]; dup || r.ID == "" {
			continue
		}
		names[r.ID] = r.Name
		ids = append(ids, r.ID)
	}

	if len(ids) == 0 || len(ids) < c.settings.MinPlayers {
		return Assignment{}, newError(
			KIND_PRECONDITION,
			ErrNotEnoughPlayers.Code,
			"无法开始游戏：玩家数量不足 %d 人",
			max(c.settings.MinPlayers, 1),
		)
	}

	// 每局至少一名杀手
	if !c.killerAvailable(ids) {
		return Assignment{}, ErrNoKillerRole
	}

	assignment := c.selector.Assign(ids, c.forced, c.settings.Selector)
	if assignment.KillerCount < 1 {
		return Assignment{}, ErrNoKillerRole
	}

	c.players = make(map[string]*PlayerState, len(ids))
	c.order = ids
	for _, id := range ids {
		c.players[id] = &PlayerState{
			ID:    id,
			Name:  names[id],
			Role:  assignment.Roles[id],
			Alive: true,
		}
	}

	if r, ok := c.inventory.(interface{ Reset() }); ok {
		r.Reset()
	}

	c.ledger.BeginRound(c.now)
	balance := c.settings.StartingBalance(len(ids))
	for _, id := range ids {
		c.ledger.SetBalance(id, balance)
	}

	c.phase = PHASE_ACTIVE
	c.elapsed = 0
	c.timeLeft = c.settings.RoundTicks
	c.killerCount = assignment.KillerCount

	for _, id := range ids {
		p := c.players[id]
		c.hooks.fireRoleAssigned(RoleAssignedEvent{
			SessionID: c.sessionID,
			Player:    p,
			Role:      p.Role,
			Inventory: c.inventory,
		})
	}

	if c.notifier != nil {
		for _, id := range ids {
			c.notifier.Welcome(WelcomeMessage{
				SessionID:      c.sessionID,
				PlayerID:       id,
				RoleID:         c.players[id].Role.ID,
				KillerCount:    assignment.KillerCount,
				NonKillerCount: len(ids) - assignment.KillerCount,
			})
		}
	}

	zap.L().Info(
		"对局开始",
		zap.String("session_id", c.sessionID),
		zap.Int("players", len(ids)),
		zap.Int("killers", assignment.KillerCount),
		zap.Int("starting_balance", balance),
	)

	return assignment, nil
}

// killerAvailable 判断本局能否产生杀手：有启用的杀手角色，或有玩家被强制为杀手
func (c *Controller) killerAvailable(ids []string) bool {
	if len(c.registry.Assignable(POOL_KILLER)) > 0 {
		return true
	}

	for _, id := range ids {
		roleID, ok := c.forced.Get(id)
		if !ok {
			continue
		}
		if r, ok := c.registry.Get(roleID); ok && r.Faction() == FACTION_KILLER {
			return true
		}
	}

	return false
}

// Tick 每个固定步长调用一次
func (c *Controller) Tick() (WinResult, error) {
	if c.phase != PHASE_ACTIVE {
		return WinResult{Status: WIN_NONE}, ErrRoundNotActive
	}

	c.now++
	c.elapsed++
	c.timeLeft--

	if period := c.settings.PassiveIncomePeriod; period > 0 && c.elapsed%period == 0 {
		for _, id := range c.order {
			p := c.players[id]
			if p.Participating() && p.Faction() == c.settings.PassiveIncomeFaction {
				c.ledger.Add(id, c.settings.PassiveIncomeAmount)
			}
		}
	}

	result := EvaluateWin(c.hooks, c.sessionID, c.players, c.timeLeft)
	if result.Decided() {
		c.finish(result)
	}

	return result, nil
}

func (c *Controller) finish(result WinResult) {
	end := RoundEnd{
		SessionID: c.sessionID,
		Status:    result.Status,
		Winner:    result.Winner,
		Roster:    c.Players(),
		EndedAt:   c.now,
	}

	c.lastEnd = &end
	c.phase = PHASE_ENDED

	zap.L().Info(
		"对局结束",
		zap.String("session_id", c.sessionID),
		zap.String("status", string(result.Status)),
		zap.String("winner", result.Winner),
	)

	if c.notifier != nil {
		c.notifier.RoundEnded(end)
	}

	c.reset()
}

// Stop 可在任何阶段调用，强制回到 INACTIVE
func (c *Controller) Stop() bool {
	wasActive := c.phase == PHASE_ACTIVE
	c.reset()

	if wasActive {
		zap.L().Info("对局被强制结束", zap.String("session_id", c.sessionID))
	}

	return wasActive
}

func (c *Controller) reset() {
	c.ledger.ClearRound()
	c.players = make(map[string]*PlayerState)
	c.order = nil
	c.elapsed = 0
	c.timeLeft = 0
	c.killerCount = 0
	c.phase = PHASE_INACTIVE
}

// Eliminate 让玩家出局
func (c *Controller) Eliminate(playerID string, cause EliminationCause) error {
	if c.phase != PHASE_ACTIVE {
		return ErrRoundNotActive
	}

	p, ok := c.players[playerID]
	if !ok || p.Spectator {
		zap.L().Warn(
			"尝试淘汰不在本局中的玩家",
			zap.String("session_id", c.sessionID),
			zap.String("player_id", playerID),
		)
		return ErrUnknownPlayer
	}

	if !p.Alive {
		return ErrPlayerEliminated
	}

	p.Alive = false
	p.Cause = cause
	p.EliminatedAt = c.now

	zap.L().Info(
		"玩家出局",
		zap.String("session_id", c.sessionID),
		zap.String("player_id", playerID),
		zap.String("cause", string(cause)),
	)

	return nil
}

// OnPlayerDisconnect 对局中存活的玩家断线视为逃离
func (c *Controller) OnPlayerDisconnect(playerID string) {
	if c.phase != PHASE_ACTIVE {
		return
	}

	p, ok := c.players[playerID]
	if !ok || !p.Participating() {
		return
	}

	_ = c.Eliminate(playerID, CAUSE_ESCAPED)
}

// OnPlayerJoin 已出局或中途加入的玩家只能观战，返回 nil 表示当前没有对局
func (c *Controller) OnPlayerJoin(playerID, name string) *PlayerState {
	if c.phase != PHASE_ACTIVE {
		return nil
	}

	p, ok := c.players[playerID]
	if !ok {
		p = &PlayerState{
			ID:        playerID,
			Name:      name,
			Spectator: true,
		}
		c.players[playerID] = p
		c.order = append(c.order, playerID)
		return p
	}

	if !p.Alive {
		p.Spectator = true
	}

	return p
}

func (c *Controller) ShopEntries(playerID string) []ShopEntry {
	if c.phase != PHASE_ACTIVE {
		return nil
	}

	p, ok := c.players[playerID]
	if !ok || !p.Participating() {
		return nil
	}

	return c.shop.EntriesFor(p)
}

func (c *Controller) Purchase(playerID string, index int) error {
	if c.phase != PHASE_ACTIVE {
		return ErrShopUnavailable
	}

	p, ok := c.players[playerID]
	if !ok {
		return ErrShopUnavailable
	}

	return c.shop.Purchase(p, index, c.now)
}

func (c *Controller) Balance(playerID string) int {
	return c.ledger.Balance(playerID)
}

// ResolveShot 处理一次开枪：先判定走火，再判定误伤平民的惩罚
func (c *Controller) ResolveShot(shooterID, victimID string) (ShotOutcome, error) {
	if c.phase != PHASE_ACTIVE {
		return ShotOutcome{}, ErrRoundNotActive
	}

	shooter, ok := c.players[shooterID]
	if !ok || !shooter.Participating() {
		return ShotOutcome{}, ErrUnknownPlayer
	}

	victim, ok := c.players[victimID]
	if !ok || !victim.Participating() || victimID == shooterID {
		return ShotOutcome{}, newError(KIND_VALIDATION, ErrInvalidArgument.Code, "无效的目标：%s", victimID)
	}

	var outcome ShotOutcome

	if shooter.Faction() != FACTION_KILLER && c.settings.BackfireChance > 0 &&
		c.rng.Float64() < c.settings.BackfireChance {
		_ = c.Eliminate(shooterID, CAUSE_BACKFIRE)
		outcome.Backfired = true
		return outcome, nil
	}

	_ = c.Eliminate(victimID, CAUSE_SHOT)
	outcome.VictimEliminated = true

	if shooter.Faction() != FACTION_CIVILIAN || victim.Faction() != FACTION_CIVILIAN {
		return outcome, nil
	}

	res, ok := c.hooks.askShouldPunishShooter(PunishEvent{
		SessionID: c.sessionID,
		Shooter:   shooter,
		Victim:    victim,
	})
	if !ok {
		res = PunishResult{Kind: PUNISH_ALLOW}
	}

	outcome.Punishment = res.Kind

	switch res.Kind {
	case PUNISH_CANCEL:
	case PUNISH_CUSTOM:
		if res.Effect != nil {
			res.Effect(shooter, victim)
		}
	default:
		c.punishShooter(shooter)
	}

	return outcome, nil
}

func (c *Controller) punishShooter(shooter *PlayerState) {
	switch c.settings.ShootInnocentPunishment {
	case PUNISH_MODE_KILL_SHOOTER:
		_ = c.Eliminate(shooter.ID, CAUSE_PUNISHED)
	case PUNISH_MODE_PREVENT_GUN_PICKUP:
		shooter.GunBanned = true
		c.inventory.Remove(shooter.ID, ITEM_REVOLVER)
	default:
		c.inventory.Remove(shooter.ID, ITEM_REVOLVER)
	}
}

// GiveKey 发放带房间名的钥匙
func (c *Controller) GiveKey(playerID, room string) error {
	if playerID == "" || room == "" {
		return newError(KIND_VALIDATION, ErrInvalidArgument.Code, "玩家和房间不能为空")
	}

	if !c.inventory.Insert(playerID, KeyItem(room)) {
		return ErrInventoryFull
	}

	return nil
}
