package game

// 库存为 -1 表示不限量
const STOCK_UNLIMITED = -1

type LedgerEntry struct {
	// 0 表示不在冷却中
	CooldownExpiresAt int `json:"cooldown_expires_at"`
	RemainingStock    int `json:"remaining_stock"`
}

// Ledger 记录每个玩家的余额以及每件商品的冷却和库存
type Ledger struct {
	balances map[string]int
	entries  map[string]map[string]*LedgerEntry

	roundStart int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]int),
		entries:  make(map[string]map[string]*LedgerEntry),
	}
}

func (l *Ledger) Balance(playerID string) int {
	return l.balances[playerID]
}

func (l *Ledger) SetBalance(playerID string, amount int) {
	l.balances[playerID] = max(amount, 0)
}

func (l *Ledger) Add(playerID string, amount int) {
	l.SetBalance(playerID, l.balances[playerID]+amount)
}

// Debit 余额不足时不做任何修改
func (l *Ledger) Debit(playerID string, amount int) bool {
	if amount < 0 || l.balances[playerID] < amount {
		return false
	}

	l.balances[playerID] -= amount
	return true
}

// entry 首次访问时按商品配置创建：库存取上限，初始冷却从开局计起
func (l *Ledger) entry(playerID string, item ShopEntry) *LedgerEntry {
	perPlayer, ok := l.entries[playerID]
	if !ok {
		perPlayer = make(map[string]*LedgerEntry)
		l.entries[playerID] = perPlayer
	}

	e, ok := perPlayer[item.ID]
	if !ok {
		e = &LedgerEntry{RemainingStock: item.stockCap()}
		if item.InitialCooldownTicks > 0 {
			e.CooldownExpiresAt = l.roundStart + item.InitialCooldownTicks
		}
		perPlayer[item.ID] = e
	}

	return e
}

// Lookup 返回当前记录，不存在时返回零值且不创建
func (l *Ledger) Lookup(playerID, itemID string) (LedgerEntry, bool) {
	e, ok := l.entries[playerID][itemID]
	if !ok {
		return LedgerEntry{}, false
	}

	return *e, true
}

func (l *Ledger) OnCooldown(playerID string, item ShopEntry, now int) bool {
	e := l.entry(playerID, item)
	return e.CooldownExpiresAt > now
}

func (l *Ledger) Stock(playerID string, item ShopEntry) int {
	return l.entry(playerID, item).RemainingStock
}

// BeginRound 清空冷却和库存，并记录开局 tick
func (l *Ledger) BeginRound(now int) {
	l.entries = make(map[string]map[string]*LedgerEntry)
	l.roundStart = now
}

// ClearRound 在一局结束时丢弃所有经济数据
func (l *Ledger) ClearRound() {
	l.balances = make(map[string]int)
	l.entries = make(map[string]map[string]*LedgerEntry)
	l.roundStart = 0
}

// snapshot 用于购买失败时回滚
type ledgerSnapshot struct {
	playerID string
	itemID   string
	balance  int
	entry    LedgerEntry
}

func (l *Ledger) snapshot(playerID string, item ShopEntry) ledgerSnapshot {
	return ledgerSnapshot{
		playerID: playerID,
		itemID:   item.ID,
		balance:  l.balances[playerID],
		entry:    *l.entry(playerID, item),
	}
}

func (l *Ledger) restore(s ledgerSnapshot) {
	l.balances[s.playerID] = s.balance
	if e, ok := l.entries[s.playerID][s.itemID]; ok {
		*e = s.entry
	}
}
