package game

import (
	"testing"
)

func winPlayers(t *testing.T, roles map[string]string, dead ...string) map[string]*PlayerState {
	t.Helper()

	rr := newTestRegistry()
	players := make(map[string]*PlayerState, len(roles))

	for id, roleID := range roles {
		role, ok := rr.Get(roleID)
		if !ok {
			t.Fatalf("unknown role %s", roleID)
		}
		players[id] = &PlayerState{ID: id, Role: role, Alive: true}
	}

	for _, id := range dead {
		players[id].Alive = false
	}

	return players
}

func TestBaselineStatus_Order(t *testing.T) {
	roles := map[string]string{
		"c1": ROLE_CIVILIAN,
		"c2": ROLE_VIGILANTE,
		"k1": ROLE_KILLER,
	}

	cases := []struct {
		name     string
		dead     []string
		timeLeft int
		want     WinStatus
	}{
		{name: "nobody dead", timeLeft: 10, want: WIN_NONE},
		{name: "killers dead", dead: []string{"k1"}, timeLeft: 10, want: WIN_FACTION_A},
		{name: "civilians dead", dead: []string{"c1", "c2"}, timeLeft: 10, want: WIN_FACTION_B},
		{name: "timer first", dead: []string{"k1"}, timeLeft: 0, want: WIN_TIME_EXPIRED},
		{name: "civilians checked before killers", dead: []string{"c1", "c2", "k1"}, timeLeft: 10, want: WIN_FACTION_B},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			players := winPlayers(t, roles, c.dead...)
			if got := BaselineStatus(players, c.timeLeft); got != c.want {
				t.Fatalf("want %s, got %s", c.want, got)
			}
		})
	}
}

func TestBaselineStatus_SpectatorsDoNotCount(t *testing.T) {
	players := winPlayers(t, map[string]string{"c1": ROLE_CIVILIAN, "k1": ROLE_KILLER})
	players["c1"].Spectator = true

	if got := BaselineStatus(players, 10); got != WIN_FACTION_B {
		t.Fatalf("spectating civilians should not count as alive, got %s", got)
	}
}

func TestEvaluateWin_FirstListenerDecides(t *testing.T) {
	hooks := NewHooks()
	hooks.OnCheckWinCondition(func(ev WinCheckEvent) (WinResult, bool) {
		return WinResult{}, false
	})
	hooks.OnCheckWinCondition(func(ev WinCheckEvent) (WinResult, bool) {
		return WinResult{Status: WIN_NEUTRAL, Winner: "c1"}, true
	})
	hooks.OnCheckWinCondition(func(ev WinCheckEvent) (WinResult, bool) {
		return WinResult{Status: WIN_BLOCKED}, true
	})

	players := winPlayers(t, map[string]string{"c1": ROLE_CIVILIAN, "k1": ROLE_KILLER})
	got := EvaluateWin(hooks, "s", players, 10)

	if got.Status != WIN_NEUTRAL || got.Winner != "c1" {
		t.Fatalf("want neutral win for c1, got %+v", got)
	}
}

func TestEvaluateWin_BlockedOverridesBaseline(t *testing.T) {
	hooks := NewHooks()
	hooks.OnCheckWinCondition(func(ev WinCheckEvent) (WinResult, bool) {
		return WinResult{Status: WIN_BLOCKED}, true
	})

	players := winPlayers(t, map[string]string{"c1": ROLE_CIVILIAN, "k1": ROLE_KILLER}, "k1")
	got := EvaluateWin(hooks, "s", players, 0)

	if got.Status != WIN_BLOCKED || got.Decided() {
		t.Fatalf("want undecided blocked result, got %+v", got)
	}
}

func TestEvaluateWin_ListenerSeesBaseline(t *testing.T) {
	hooks := NewHooks()
	var seen WinStatus
	hooks.OnCheckWinCondition(func(ev WinCheckEvent) (WinResult, bool) {
		seen = ev.Status
		return WinResult{}, false
	})

	players := winPlayers(t, map[string]string{"c1": ROLE_CIVILIAN, "k1": ROLE_KILLER}, "k1")
	got := EvaluateWin(hooks, "s", players, 10)

	if seen != WIN_FACTION_A || got.Status != WIN_FACTION_A {
		t.Fatalf("want baseline passed through, seen=%s got=%s", seen, got.Status)
	}
}

func TestEvaluateWin_Idempotent(t *testing.T) {
	hooks := NewHooks()
	RegisterDefaultHooks(hooks, nil)

	players := winPlayers(t, map[string]string{
		"c1": ROLE_CIVILIAN,
		"c2": ROLE_CIVILIAN,
		"k1": ROLE_KILLER,
		"n1": ROLE_LOOSE_END,
	}, "k1")

	first := EvaluateWin(hooks, "s", players, 10)
	second := EvaluateWin(hooks, "s", players, 10)

	if first != second {
		t.Fatalf("same inputs should yield same result: %+v vs %+v", first, second)
	}
}

func TestDefaultHooks_LooseEndLastStanding(t *testing.T) {
	hooks := NewHooks()
	RegisterDefaultHooks(hooks, nil)

	players := winPlayers(t, map[string]string{
		"c1": ROLE_CIVILIAN,
		"k1": ROLE_KILLER,
		"n1": ROLE_LOOSE_END,
	}, "c1", "k1")

	got := EvaluateWin(hooks, "s", players, 10)

	if got.Status != WIN_NEUTRAL || got.Winner != "n1" {
		t.Fatalf("want neutral win for n1, got %+v", got)
	}
}
