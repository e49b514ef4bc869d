package game

import (
	"go.uber.org/zap"
)

// 监听链的组合策略
type Strategy int

const (
	// 第一个给出结果的监听器胜出，后续监听器不再调用
	FIRST_NON_EMPTY Strategy = iota
	// 所有监听器都会执行，没有返回值
	FAN_OUT_ALL
	// 所有监听器都会执行，任意一个给出结果即为真
	LOGICAL_OR
)

// Listener 返回 ok=false 表示“没有意见”
type Listener[A any, R any] func(arg A) (R, bool)

type Chain[A any, R any] struct {
	name      string
	strategy  Strategy
	listeners []Listener[A, R]
}

func NewChain[A any, R any](name string, strategy Strategy) *Chain[A, R] {
	return &Chain[A, R]{
		name:      name,
		strategy:  strategy,
		listeners: make([]Listener[A, R], 0),
	}
}

func (c *Chain[A, R]) Name() string {
	return c.name
}

func (c *Chain[A, R]) Len() int {
	return len(c.listeners)
}

// Register 按注册顺序追加，没有优先级
func (c *Chain[A, R]) Register(l Listener[A, R]) {
	c.listeners = append(c.listeners, l)
}

// Dispatch 按链的策略执行全部或部分监听器
func (c *Chain[A, R]) Dispatch(arg A) (R, bool) {
	var (
		result R
		found  bool
	)

	for i, l := range c.listeners {
		res, ok := c.invoke(i, l, arg)
		if !ok {
			continue
		}

		switch c.strategy {
		case FIRST_NON_EMPTY:
			return res, true
		case LOGICAL_OR:
			if !found {
				result = res
				found = true
			}
		case FAN_OUT_ALL:
		}
	}

	return result, found
}

// invoke 吞掉监听器的 panic，视为没有意见
func (c *Chain[A, R]) invoke(idx int, l Listener[A, R], arg A) (res R, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(
				"监听器执行异常，已忽略",
				zap.String("chain", c.name),
				zap.Int("listener_index", idx),
				zap.Any("panic", r),
			)

			var zero R
			res, ok = zero, false
		}
	}()

	return l(arg)
}

// 监听链名称
const (
	HOOK_ROLE_ASSIGNED         = "role-assigned"
	HOOK_BUILD_SHOP_ENTRIES    = "build-shop-entries"
	HOOK_SHOULD_PUNISH_SHOOTER = "should-punish-shooter"
	HOOK_CHECK_WIN_CONDITION   = "check-win-condition"
	HOOK_DENY_PURCHASE         = "deny-purchase"
)

// RoleAssignedEvent 携带本会话的背包，监听器可以直接发放开局物品
type RoleAssignedEvent struct {
	SessionID string
	Player    *PlayerState
	Role      *Role
	Inventory Inventory
}

type PunishEvent struct {
	SessionID string
	Shooter   *PlayerState
	Victim    *PlayerState
}

type PunishKind string

const (
	PUNISH_CANCEL PunishKind = "Cancel"
	PUNISH_ALLOW  PunishKind = "Allow"
	PUNISH_CUSTOM PunishKind = "Custom"
)

// PunishResult 中 Effect 仅在 PUNISH_CUSTOM 时使用
type PunishResult struct {
	Kind   PunishKind
	Effect func(shooter, victim *PlayerState)
}

type WinCheckEvent struct {
	SessionID     string
	Players       map[string]*PlayerState
	TimeLeftTicks int
	Status        WinStatus
}

type PurchaseEvent struct {
	SessionID string
	Player    *PlayerState
	Entry     ShopEntry
}

// Hooks 是进程启动时构造一次的扩展点注册表
type Hooks struct {
	roleAssigned        *Chain[RoleAssignedEvent, struct{}]
	buildShopEntries    *Chain[*ShopContext, struct{}]
	shouldPunishShooter *Chain[PunishEvent, PunishResult]
	checkWinCondition   *Chain[WinCheckEvent, WinResult]
	denyPurchase        *Chain[PurchaseEvent, struct{}]
}

func NewHooks() *Hooks {
	return &Hooks{
		roleAssigned:        NewChain[RoleAssignedEvent, struct{}](HOOK_ROLE_ASSIGNED, FAN_OUT_ALL),
		buildShopEntries:    NewChain[*ShopContext, struct{}](HOOK_BUILD_SHOP_ENTRIES, FAN_OUT_ALL),
		shouldPunishShooter: NewChain[PunishEvent, PunishResult](HOOK_SHOULD_PUNISH_SHOOTER, FIRST_NON_EMPTY),
		checkWinCondition:   NewChain[WinCheckEvent, WinResult](HOOK_CHECK_WIN_CONDITION, FIRST_NON_EMPTY),
		denyPurchase:        NewChain[PurchaseEvent, struct{}](HOOK_DENY_PURCHASE, LOGICAL_OR),
	}
}

func (h *Hooks) OnRoleAssigned(fn func(ev RoleAssignedEvent)) {
	h.roleAssigned.Register(func(ev RoleAssignedEvent) (struct{}, bool) {
		fn(ev)
		return struct{}{}, false
	})
}

// OnBuildShopEntries 的监听器可以追加条目，也可以清空列表来拒绝商店访问
func (h *Hooks) OnBuildShopEntries(fn func(ctx *ShopContext)) {
	h.buildShopEntries.Register(func(ctx *ShopContext) (struct{}, bool) {
		fn(ctx)
		return struct{}{}, false
	})
}

func (h *Hooks) OnShouldPunishShooter(fn func(ev PunishEvent) (PunishResult, bool)) {
	h.shouldPunishShooter.Register(fn)
}

func (h *Hooks) OnCheckWinCondition(fn func(ev WinCheckEvent) (WinResult, bool)) {
	h.checkWinCondition.Register(fn)
}

// OnDenyPurchase 的监听器返回 true 表示否决本次购买
func (h *Hooks) OnDenyPurchase(fn func(ev PurchaseEvent) bool) {
	h.denyPurchase.Register(func(ev PurchaseEvent) (struct{}, bool) {
		return struct{}{}, fn(ev)
	})
}

func (h *Hooks) fireRoleAssigned(ev RoleAssignedEvent) {
	h.roleAssigned.Dispatch(ev)
}

func (h *Hooks) fireBuildShopEntries(ctx *ShopContext) {
	h.buildShopEntries.Dispatch(ctx)
}

func (h *Hooks) askShouldPunishShooter(ev PunishEvent) (PunishResult, bool) {
	return h.shouldPunishShooter.Dispatch(ev)
}

func (h *Hooks) askCheckWinCondition(ev WinCheckEvent) (WinResult, bool) {
	return h.checkWinCondition.Dispatch(ev)
}

func (h *Hooks) askDenyPurchase(ev PurchaseEvent) bool {
	_, denied := h.denyPurchase.Dispatch(ev)
	return denied
}

// RegisterDefaultHooks 挂上内置玩法：义警的左轮、杀手商店和孤狼的最后幸存者胜利
func RegisterDefaultHooks(h *Hooks, catalog []ShopEntry) {
	h.OnRoleAssigned(func(ev RoleAssignedEvent) {
		if ev.Role == nil || ev.Role.Pool != POOL_VIGILANTE || ev.Inventory == nil {
			return
		}

		ev.Inventory.Insert(ev.Player.ID, ITEM_REVOLVER)
	})

	h.OnBuildShopEntries(func(ctx *ShopContext) {
		if FactionOf(ctx.Player.Role) != FACTION_KILLER {
			return
		}

		for _, e := range catalog {
			ctx.Add(e)
		}
	})

	h.OnCheckWinCondition(func(ev WinCheckEvent) (WinResult, bool) {
		var last *PlayerState
		alive := 0

		for _, p := range ev.Players {
			if p.Alive && !p.Spectator {
				alive++
				last = p
			}
		}

		if alive != 1 || last.Role == nil || last.Role.ID != ROLE_LOOSE_END {
			return WinResult{}, false
		}

		return WinResult{Status: WIN_NEUTRAL, Winner: last.ID}, true
	})
}
