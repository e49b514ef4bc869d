package game

import (
	"fmt"

	"go.uber.org/zap"
)

// 内置物品
const (
	ITEM_KNIFE       = "mtrain:knife"
	ITEM_REVOLVER    = "mtrain:revolver"
	ITEM_GRENADE     = "mtrain:grenade"
	ITEM_PSYCHO_MODE = "mtrain:psycho_mode"
	ITEM_POISON      = "mtrain:poison_vial"
	ITEM_SCORPION    = "mtrain:scorpion"
	ITEM_FIRECRACKER = "mtrain:firecracker"
	ITEM_LOCKPICK    = "mtrain:lockpick"
	ITEM_CROWBAR     = "mtrain:crowbar"
	ITEM_BODY_BAG    = "mtrain:body_bag"
	ITEM_BLACKOUT    = "mtrain:blackout"
	ITEM_NOTE        = "mtrain:note"
	ITEM_KEY         = "mtrain:key"
)

// 商品分类
const (
	CATEGORY_WEAPON  = "Weapon"
	CATEGORY_POISON  = "Poison"
	CATEGORY_TOOL    = "Tool"
	CATEGORY_UTILITY = "Utility"
)

// ShopEntry 每次查询商店时重新构造，不是持久状态
type ShopEntry struct {
	ID                   string `json:"id"`
	DisplayItem          string `json:"display_item"`
	Item                 string `json:"item,omitempty"`
	Price                int    `json:"price"`
	Category             string `json:"category"`
	CooldownTicks        int    `json:"cooldown_ticks,omitempty"`
	InitialCooldownTicks int    `json:"initial_cooldown_ticks,omitempty"`
	// 0 表示不限量
	MaxStock int `json:"max_stock,omitempty"`

	// OnBuy 覆盖默认的“放入背包”效果，返回 false 表示执行失败
	OnBuy func(player *PlayerState) bool `json:"-"`
}

func NewShopEntry(id, displayItem string, price int, category string) ShopEntry {
	return ShopEntry{
		ID:          id,
		DisplayItem: displayItem,
		Price:       price,
		Category:    category,
	}
}

func (e ShopEntry) WithItem(item string) ShopEntry {
	e.Item = item
	return e
}

func (e ShopEntry) WithCooldown(ticks int) ShopEntry {
	e.CooldownTicks = ticks
	return e
}

func (e ShopEntry) WithInitialCooldown(ticks int) ShopEntry {
	e.InitialCooldownTicks = ticks
	return e
}

func (e ShopEntry) WithStock(limit int) ShopEntry {
	e.MaxStock = limit
	return e
}

func (e ShopEntry) WithOnBuy(fn func(player *PlayerState) bool) ShopEntry {
	e.OnBuy = fn
	return e
}

// ActualItem 未设置时使用展示物品
func (e ShopEntry) ActualItem() string {
	if e.Item == "" {
		return e.DisplayItem
	}

	return e.Item
}

func (e ShopEntry) stockCap() int {
	if e.MaxStock <= 0 {
		return STOCK_UNLIMITED
	}

	return e.MaxStock
}

// ShopContext 在 build-shop-entries 监听链中传递
type ShopContext struct {
	SessionID string
	Player    *PlayerState
	entries   []ShopEntry
}

func (sc *ShopContext) Add(e ShopEntry) {
	sc.entries = append(sc.entries, e)
}

// Clear 清空列表即拒绝该玩家访问商店
func (sc *ShopContext) Clear() {
	sc.entries = sc.entries[:0]
}

func (sc *ShopContext) Entries() []ShopEntry {
	return sc.entries
}

// Inventory 是外部的背包系统
type Inventory interface {
	Insert(playerID, item string) bool
	Remove(playerID, item string) bool
	Has(playerID, item string) bool
}

type Shop struct {
	sessionID string
	hooks     *Hooks
	ledger    *Ledger
	inventory Inventory
}

func NewShop(sessionID string, hooks *Hooks, ledger *Ledger, inventory Inventory) *Shop {
	return &Shop{
		sessionID: sessionID,
		hooks:     hooks,
		ledger:    ledger,
		inventory: inventory,
	}
}

// EntriesFor 返回空列表表示该玩家没有商店权限
func (s *Shop) EntriesFor(player *PlayerState) []ShopEntry {
	if player == nil {
		return nil
	}

	ctx := &ShopContext{
		SessionID: s.sessionID,
		Player:    player,
		entries:   make([]ShopEntry, 0),
	}

	s.hooks.fireBuildShopEntries(ctx)

	return ctx.entries
}

// Purchase 总是在服务端重新生成商品列表，不信任客户端给出的条目
func (s *Shop) Purchase(player *PlayerState, index int, now int) error {
	if player == nil || !player.Participating() {
		return ErrShopUnavailable
	}

	entries := s.EntriesFor(player)
	if len(entries) == 0 {
		return ErrShopUnavailable
	}

	if index < 0 || index >= len(entries) {
		return newError(KIND_VALIDATION, REASON_INVALID_ITEM, "无效的商品序号：%d", index)
	}

	entry := entries[index]

	if s.ledger.Balance(player.ID) < entry.Price {
		return ErrInsufficientFunds
	}

	if s.ledger.OnCooldown(player.ID, entry, now) {
		return ErrOnCooldown
	}

	if s.ledger.Stock(player.ID, entry) == 0 {
		return ErrOutOfStock
	}

	if s.hooks.askDenyPurchase(PurchaseEvent{SessionID: s.sessionID, Player: player, Entry: entry}) {
		return ErrDenied
	}

	snap := s.ledger.snapshot(player.ID, entry)

	s.ledger.Debit(player.ID, entry.Price)

	le := s.ledger.entry(player.ID, entry)
	if entry.CooldownTicks > 0 {
		le.CooldownExpiresAt = now + entry.CooldownTicks
	}
	if le.RemainingStock > 0 {
		le.RemainingStock--
	}

	if !s.apply(player, entry) {
		s.ledger.restore(snap)

		zap.L().Info(
			"购买执行失败，已回滚",
			zap.String("session_id", s.sessionID),
			zap.String("player_id", player.ID),
			zap.String("entry_id", entry.ID),
		)

		return ErrPurchaseFailed
	}

	zap.L().Info(
		"购买成功",
		zap.String("session_id", s.sessionID),
		zap.String("player_id", player.ID),
		zap.String("entry_id", entry.ID),
		zap.Int("price", entry.Price),
		zap.Int("balance", s.ledger.Balance(player.ID)),
	)

	return nil
}

func (s *Shop) apply(player *PlayerState, entry ShopEntry) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(
				"购买效果执行异常",
				zap.String("entry_id", entry.ID),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	if entry.OnBuy != nil {
		return entry.OnBuy(player)
	}

	if s.inventory == nil {
		return false
	}

	return s.inventory.Insert(player.ID, entry.ActualItem())
}

// KeyItem 生成带房间名的钥匙物品
func KeyItem(room string) string {
	return fmt.Sprintf("%s[%s]", ITEM_KEY, room)
}

// DefaultCatalog 是杀手商店的内置商品
func DefaultCatalog() []ShopEntry {
	const second = 20

	return []ShopEntry{
		NewShopEntry("knife", ITEM_KNIFE, 100, CATEGORY_WEAPON).WithStock(1),
		NewShopEntry("revolver", ITEM_REVOLVER, 300, CATEGORY_WEAPON).WithCooldown(60 * second),
		NewShopEntry("grenade", ITEM_GRENADE, 350, CATEGORY_WEAPON).WithCooldown(300 * second).WithInitialCooldown(60 * second),
		NewShopEntry("psycho_mode", ITEM_PSYCHO_MODE, 300, CATEGORY_WEAPON).WithCooldown(300 * second).WithStock(1),
		NewShopEntry("poison_vial", ITEM_POISON, 100, CATEGORY_POISON).WithCooldown(30 * second),
		NewShopEntry("scorpion", ITEM_SCORPION, 50, CATEGORY_POISON).WithCooldown(30 * second),
		NewShopEntry("firecracker", ITEM_FIRECRACKER, 10, CATEGORY_TOOL),
		NewShopEntry("lockpick", ITEM_LOCKPICK, 50, CATEGORY_TOOL).WithStock(1),
		NewShopEntry("crowbar", ITEM_CROWBAR, 25, CATEGORY_TOOL).WithStock(1),
		NewShopEntry("body_bag", ITEM_BODY_BAG, 200, CATEGORY_UTILITY).WithCooldown(60 * second),
		NewShopEntry("blackout", ITEM_BLACKOUT, 200, CATEGORY_UTILITY).WithCooldown(180 * second).WithInitialCooldown(120 * second),
		NewShopEntry("note", ITEM_NOTE, 10, CATEGORY_UTILITY),
	}
}
