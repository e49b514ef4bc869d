package game

import (
	"errors"
	"testing"
)

func TestRoleRegistry_RegisterIsIdempotent(t *testing.T) {
	rr := newTestRegistry()
	before := len(rr.All())

	first, _ := rr.Get(ROLE_KILLER)
	again := rr.Register(Role{ID: ROLE_KILLER, Innocent: true})

	if again != first {
		t.Fatalf("re-registering should return the existing role")
	}
	if again.Innocent {
		t.Fatalf("existing role should not be replaced")
	}
	if got := len(rr.All()); got != before {
		t.Fatalf("catalog size changed from %d to %d", before, got)
	}
}

func TestRoleRegistry_FactionDerivation(t *testing.T) {
	rr := newTestRegistry()

	cases := map[string]Faction{
		ROLE_CIVILIAN:  FACTION_CIVILIAN,
		ROLE_VIGILANTE: FACTION_CIVILIAN,
		ROLE_KILLER:    FACTION_KILLER,
		ROLE_LOOSE_END: FACTION_NEUTRAL,
		ROLE_NO_ROLE:   FACTION_CIVILIAN,
	}

	for id, want := range cases {
		r, ok := rr.Get(id)
		if !ok {
			t.Fatalf("role %s not registered", id)
		}
		if got := r.Faction(); got != want {
			t.Fatalf("role %s: want %s, got %s", id, want, got)
		}
	}

	if FactionOf(nil) != "" {
		t.Fatalf("nil role should have no faction")
	}
}

func TestRoleRegistry_SpecialRolesCannotBeDisabled(t *testing.T) {
	rr := newTestRegistry()

	if err := rr.SetEnabled(ROLE_NO_ROLE, false); !errors.Is(err, ErrSpecialRole) {
		t.Fatalf("want special role error, got %v", err)
	}

	r, _ := rr.Get(ROLE_NO_ROLE)
	if !rr.IsEnabled(r) {
		t.Fatalf("special role should stay enabled")
	}
	if err := rr.SetEnabled(ROLE_NO_ROLE, true); err != nil {
		t.Fatalf("enabling a special role is a no-op, got %v", err)
	}
}

func TestRoleRegistry_UnknownRole(t *testing.T) {
	rr := newTestRegistry()

	err := rr.SetEnabled("mtrain:ghost", false)
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("want unknown role, got %v", err)
	}
	if KindOf(err) != KIND_VALIDATION {
		t.Fatalf("unknown role should be a validation error, got %s", KindOf(err))
	}
}

func TestRoleRegistry_DisableAndReenable(t *testing.T) {
	rr := newTestRegistry()

	if err := rr.SetEnabled(ROLE_LOOSE_END, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if got := rr.DisabledIDs(); len(got) != 1 || got[0] != ROLE_LOOSE_END {
		t.Fatalf("want loose end disabled, got %v", got)
	}
	if got := rr.Assignable(POOL_NEUTRAL); len(got) != 0 {
		t.Fatalf("disabled role should not be assignable, got %d", len(got))
	}

	if err := rr.SetEnabled(ROLE_LOOSE_END, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if got := rr.Assignable(POOL_NEUTRAL); len(got) != 1 {
		t.Fatalf("re-enabled role should be assignable, got %d", len(got))
	}
}

func TestRoleRegistry_BaselineIgnoresEnabledFlag(t *testing.T) {
	rr := newTestRegistry()
	if err := rr.SetEnabled(ROLE_CIVILIAN, false); err != nil {
		t.Fatalf("disable civilian: %v", err)
	}

	if b := rr.Baseline(); b == nil || b.ID != ROLE_CIVILIAN {
		t.Fatalf("baseline should still be the civilian role, got %+v", b)
	}

	empty := NewRoleRegistry()
	if b := empty.Baseline(); b == nil || b.ID != ROLE_CIVILIAN {
		t.Fatalf("empty registry should register the civilian baseline, got %+v", b)
	}
}
