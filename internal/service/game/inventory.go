package game

// 玩家背包默认格数
const DEFAULT_INVENTORY_SLOTS = 9

// MemoryInventory 是进程内的背包实现，每个玩家固定格数
type MemoryInventory struct {
	slots int
	items map[string][]string
}

func NewMemoryInventory(slots int) *MemoryInventory {
	if slots <= 0 {
		slots = DEFAULT_INVENTORY_SLOTS
	}

	return &MemoryInventory{
		slots: slots,
		items: make(map[string][]string),
	}
}

// Insert 背包已满时返回 false
func (mi *MemoryInventory) Insert(playerID, item string) bool {
	if len(mi.items[playerID]) >= mi.slots {
		return false
	}

	mi.items[playerID] = append(mi.items[playerID], item)
	return true
}

func (mi *MemoryInventory) Remove(playerID, item string) bool {
	held := mi.items[playerID]
	for i, it := range held {
		if it == item {
			mi.items[playerID] = append(held[:i], held[i+1:]...)
			return true
		}
	}

	return false
}

func (mi *MemoryInventory) Has(playerID, item string) bool {
	for _, it := range mi.items[playerID] {
		if it == item {
			return true
		}
	}

	return false
}

func (mi *MemoryInventory) Items(playerID string) []string {
	out := make([]string, len(mi.items[playerID]))
	copy(out, mi.items[playerID])
	return out
}

func (mi *MemoryInventory) Reset() {
	mi.items = make(map[string][]string)
}
