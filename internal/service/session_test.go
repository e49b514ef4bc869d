package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/service/game"
)

type fakeStore struct {
	forced   map[string]string
	toggles  map[string]bool
	settings *game.Settings
	saves    int
	fail     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		forced:  make(map[string]string),
		toggles: make(map[string]bool),
	}
}

func (fs *fakeStore) SaveForcedRole(_ context.Context, playerID, roleID string) error {
	if fs.fail != nil {
		return fs.fail
	}
	fs.forced[playerID] = roleID
	return nil
}

func (fs *fakeStore) DeleteForcedRole(_ context.Context, playerID string) error {
	delete(fs.forced, playerID)
	return nil
}

func (fs *fakeStore) SaveRoleToggle(_ context.Context, roleID string, enabled bool) error {
	fs.toggles[roleID] = enabled
	return nil
}

func (fs *fakeStore) SaveSettings(_ context.Context, settings game.Settings) error {
	fs.saves++
	s := settings
	fs.settings = &s
	return nil
}

func (fs *fakeStore) LoadForcedRoles(context.Context) (map[string]string, error) {
	return fs.forced, nil
}

func (fs *fakeStore) LoadRoleToggles(context.Context) (map[string]bool, error) {
	return fs.toggles, nil
}

func (fs *fakeStore) LoadSettings(context.Context) (game.Settings, bool, error) {
	if fs.settings == nil {
		return game.Settings{}, false, nil
	}
	return *fs.settings, true, nil
}

func newTestService(t *testing.T, mutate func(s *game.Settings)) (*SessionService, *fakeStore) {
	t.Helper()

	settings := game.DefaultSettings()
	settings.PassiveIncomePeriod = 0
	if mutate != nil {
		mutate(&settings)
	}

	store := newFakeStore()
	ss := NewSessionService(Options{
		Settings:     settings,
		Store:        store,
		TickInterval: time.Hour,
		Rng:          rand.New(rand.NewPCG(1, 2)),
	})
	t.Cleanup(ss.Close)

	return ss, store
}

// step 在模拟协程上推进 n 个 tick
func (ss *SessionService) step(n int) error {
	return ss.submit(func() {
		for i := 0; i < n; i++ {
			ss.tick()
		}
	})
}

func drain(ch chan dto.ResponseWrapper) []dto.ResponseWrapper {
	out := make([]dto.ResponseWrapper, 0)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, r)
		default:
			return out
		}
	}
}

func findResp(resps []dto.ResponseWrapper, respType string) (dto.ResponseWrapper, bool) {
	for _, r := range resps {
		if r.RespType == respType {
			return r, true
		}
	}
	return dto.ResponseWrapper{}, false
}

type testPlayer struct {
	id string
	ch chan dto.ResponseWrapper
}

func joinPlayers(t *testing.T, ss *SessionService, sessionID string, ids ...string) map[string]*testPlayer {
	t.Helper()

	out := make(map[string]*testPlayer, len(ids))
	for _, id := range ids {
		ch := make(chan dto.ResponseWrapper, 64)
		resp, err := ss.Join(dto.JoinGameRequest{SessionID: sessionID, PlayerID: id, PlayerName: "name-" + id}, ch)
		if err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		if resp.Joiner.ID != id {
			t.Fatalf("want joiner %s, got %s", id, resp.Joiner.ID)
		}
		out[id] = &testPlayer{id: id, ch: ch}
	}

	return out
}

func createSession(t *testing.T, ss *SessionService) string {
	t.Helper()

	resp, err := ss.CreateSession(dto.CreateSessionRequest{Name: "Orient Express"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return resp.SessionID
}

func TestSessionService_StartRoundWelcomesEveryPlayer(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	players := joinPlayers(t, ss, sid, "p1", "p2", "p3")

	first := drain(players["p1"].ch)
	if len(first) == 0 || first[0].RespType != dto.RESP_JOIN_GAME {
		t.Fatalf("first message should be the join ack, got %+v", first)
	}
	if _, ok := findResp(first, dto.RESP_PLAYER_JOINED); !ok {
		t.Fatalf("p1 should see later joiners")
	}

	resp, err := ss.StartRound(sid)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if resp.KillerCount != 1 || resp.Players != 3 {
		t.Fatalf("unexpected start response: %+v", resp)
	}

	for id, p := range players {
		w, ok := findResp(drain(p.ch), dto.RESP_WELCOME)
		if !ok {
			t.Fatalf("player %s got no welcome", id)
		}
		data := w.Data.(dto.WelcomeResponse)
		if data.KillerCount != 1 || data.NonKillerCount != 2 || data.RoleID == "" {
			t.Fatalf("player %s: unexpected welcome %+v", id, data)
		}
	}

	if _, err := ss.StartRound(sid); !errors.Is(err, game.ErrRoundActive) {
		t.Fatalf("want round active, got %v", err)
	}

	detail, err := ss.GetSession(sid)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if detail.Phase != string(game.PHASE_ACTIVE) || len(detail.Roster) != 3 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestSessionService_UnknownSession(t *testing.T) {
	ss, _ := newTestService(t, nil)

	if _, err := ss.GetSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want session not found, got %v", err)
	}
	if _, err := ss.StartRound("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want session not found, got %v", err)
	}
	if _, err := ss.Join(dto.JoinGameRequest{SessionID: "missing", PlayerName: "x"}, make(chan dto.ResponseWrapper, 1)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want session not found, got %v", err)
	}
}

func TestSessionService_DuplicateOnlinePlayerRejected(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	joinPlayers(t, ss, sid, "p1")

	_, err := ss.Join(dto.JoinGameRequest{SessionID: sid, PlayerID: "p1", PlayerName: "again"}, make(chan dto.ResponseWrapper, 4))
	if !errors.Is(err, ErrPlayerOnline) {
		t.Fatalf("want player online, got %v", err)
	}
}

func TestSessionService_ForcedRolesArePersisted(t *testing.T) {
	ss, store := newTestService(t, nil)
	ctx := context.Background()

	if err := ss.ForceRole(ctx, "p1", game.ROLE_VIGILANTE); err != nil {
		t.Fatalf("force role: %v", err)
	}
	if err := ss.ForceRole(ctx, "p1", "mtrain:ghost"); !errors.Is(err, game.ErrUnknownRole) {
		t.Fatalf("want unknown role, got %v", err)
	}

	roleID, ok, err := ss.GetForcedRole("p1")
	if err != nil || !ok || roleID != game.ROLE_VIGILANTE {
		t.Fatalf("want vigilante, got %q ok=%v err=%v", roleID, ok, err)
	}
	if store.forced["p1"] != game.ROLE_VIGILANTE {
		t.Fatalf("forced role not persisted: %v", store.forced)
	}

	if err := ss.ClearForcedRole(ctx, "p1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := store.forced["p1"]; ok {
		t.Fatalf("cleared role should be removed from storage")
	}
	if err := ss.ClearForcedRole(ctx, "p1"); !errors.Is(err, ErrNoForcedRole) {
		t.Fatalf("want no forced role, got %v", err)
	}
}

func TestSessionService_PersistFailureIsReported(t *testing.T) {
	ss, store := newTestService(t, nil)
	store.fail = errors.New("disk full")

	err := ss.ForceRole(context.Background(), "p1", game.ROLE_KILLER)
	if err == nil {
		t.Fatalf("persist failure should be reported")
	}

	if roleID, ok, _ := ss.GetForcedRole("p1"); !ok || roleID != game.ROLE_KILLER {
		t.Fatalf("in-memory change should still apply, got %q ok=%v", roleID, ok)
	}
}

func TestSessionService_RoleToggles(t *testing.T) {
	ss, store := newTestService(t, nil)
	ctx := context.Background()

	if err := ss.SetRoleEnabled(ctx, game.ROLE_LOOSE_END, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if enabled, ok := store.toggles[game.ROLE_LOOSE_END]; !ok || enabled {
		t.Fatalf("toggle not persisted: %v", store.toggles)
	}
	if err := ss.SetRoleEnabled(ctx, game.ROLE_NO_ROLE, false); !errors.Is(err, game.ErrSpecialRole) {
		t.Fatalf("want special role error, got %v", err)
	}
	if _, ok := store.toggles[game.ROLE_NO_ROLE]; ok {
		t.Fatalf("rejected toggle should not be persisted")
	}

	roles, err := ss.Roles()
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	for _, r := range roles {
		if r.ID == game.ROLE_LOOSE_END && r.Enabled {
			t.Fatalf("loose end should be reported disabled")
		}
	}
}

func TestSessionService_SettingsCommands(t *testing.T) {
	ss, store := newTestService(t, nil)
	ctx := context.Background()

	if err := ss.SetBackfireChance(ctx, 0.4); err != nil {
		t.Fatalf("backfire: %v", err)
	}
	if err := ss.SetBackfireChance(ctx, 2); err == nil {
		t.Fatalf("out of range backfire should fail")
	}
	if err := ss.SetDivisors(ctx, 5, 7); err != nil {
		t.Fatalf("divisors: %v", err)
	}
	if err := ss.SetBounds(ctx, false); err != nil {
		t.Fatalf("bounds: %v", err)
	}
	if err := ss.SetShootInnocentPunishment(ctx, "kill_shooter"); err != nil {
		t.Fatalf("punishment: %v", err)
	}
	if err := ss.SetShootInnocentPunishment(ctx, "exile"); err == nil {
		t.Fatalf("unknown punishment should fail")
	}
	if err := ss.SetAutostart(ctx, -1); err == nil {
		t.Fatalf("negative autostart should fail")
	}

	s, err := ss.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.BackfireChance != 0.4 || s.Selector.VigilanteDivisor != 5 || s.Selector.NeutralDivisor != 7 ||
		s.BoundsEnabled || s.ShootInnocentPunishment != game.PUNISH_MODE_KILL_SHOOTER {
		t.Fatalf("settings not applied: %+v", s)
	}

	if store.saves != 4 {
		t.Fatalf("want 4 successful saves, got %d", store.saves)
	}
	if *store.settings != s {
		t.Fatalf("persisted snapshot differs: %+v vs %+v", *store.settings, s)
	}
}

func TestSessionService_AutostartCountdown(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	joinPlayers(t, ss, sid, "p1", "p2")

	if err := ss.SetAutostart(context.Background(), 1); err != nil {
		t.Fatalf("autostart: %v", err)
	}

	if err := ss.step(game.TICKS_PER_SECOND - 1); err != nil {
		t.Fatalf("step: %v", err)
	}
	detail, _ := ss.GetSession(sid)
	if detail.Phase != string(game.PHASE_INACTIVE) || detail.AutostartLeft != 1 {
		t.Fatalf("round should not start yet: %+v", detail)
	}

	if err := ss.step(1); err != nil {
		t.Fatalf("step: %v", err)
	}
	detail, _ = ss.GetSession(sid)
	if detail.Phase != string(game.PHASE_ACTIVE) {
		t.Fatalf("round should auto start, got %s", detail.Phase)
	}
}

func TestSessionService_TimerEndsRound(t *testing.T) {
	ss, _ := newTestService(t, func(s *game.Settings) { s.RoundTicks = 5 })
	sid := createSession(t, ss)
	players := joinPlayers(t, ss, sid, "p1", "p2", "p3")

	if _, err := ss.StartRound(sid); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := ss.step(5); err != nil {
		t.Fatalf("step: %v", err)
	}

	end, ok := findResp(drain(players["p2"].ch), dto.RESP_ROUND_END)
	if !ok {
		t.Fatalf("round end should be broadcast")
	}
	data := end.Data.(dto.RoundEndResponse)
	if data.Status != string(game.WIN_TIME_EXPIRED) || len(data.Players) != 3 {
		t.Fatalf("unexpected round end: %+v", data)
	}
	for _, p := range data.Players {
		if p.RoleID == "" {
			t.Fatalf("roles should be revealed at round end: %+v", p)
		}
	}

	detail, _ := ss.GetSession(sid)
	if detail.Phase != string(game.PHASE_INACTIVE) || detail.LastRound == nil {
		t.Fatalf("session should be inactive with last round data: %+v", detail)
	}
}

func TestSessionService_LeaveMidRoundEscapes(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	players := joinPlayers(t, ss, sid, "p1", "p2", "p3")

	if _, err := ss.StartRound(sid); err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(players["p1"].ch)

	if err := ss.Leave(sid, "p2"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	left := drain(players["p2"].ch)
	if _, ok := findResp(left, dto.RESP_EXIT_GAME); !ok {
		t.Fatalf("leaver should get an exit ack")
	}
	if _, ok := <-players["p2"].ch; ok {
		t.Fatalf("leaver channel should be closed")
	}

	elim, ok := findResp(drain(players["p1"].ch), dto.RESP_ELIMINATED)
	if !ok || elim.Data.(dto.EliminatedResponse).Cause != string(game.CAUSE_ESCAPED) {
		t.Fatalf("others should see the escape, got %+v", elim)
	}

	// 重新连接的玩家只能观战
	ch := make(chan dto.ResponseWrapper, 8)
	resp, err := ss.Join(dto.JoinGameRequest{SessionID: sid, PlayerID: "p2", PlayerName: "name-p2"}, ch)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if !resp.RoundActive || !resp.Joiner.Spectator {
		t.Fatalf("rejoined player should spectate: %+v", resp)
	}
}

func TestSessionService_KillerBuysKnifeAndKills(t *testing.T) {
	ss, _ := newTestService(t, nil)
	ctx := context.Background()
	sid := createSession(t, ss)
	if err := ss.ForceRole(ctx, "p1", game.ROLE_KILLER); err != nil {
		t.Fatalf("force: %v", err)
	}
	players := joinPlayers(t, ss, sid, "p1", "p2", "p3")

	if _, err := ss.StartRound(sid); err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(players["p1"].ch)
	drain(players["p2"].ch)

	if err := ss.HandleAction(sid, "p1", dto.RequestWrapper{ReqType: dto.REQ_LIST_SHOP}); err != nil {
		t.Fatalf("list shop: %v", err)
	}
	shop, ok := findResp(drain(players["p1"].ch), dto.RESP_SHOP)
	if !ok {
		t.Fatalf("want shop response")
	}
	view := shop.Data.(dto.ShopResponse)
	if len(view.Items) != len(game.DefaultCatalog()) || view.Items[0].ID != "knife" {
		t.Fatalf("killer should see the catalog: %+v", view)
	}

	// 无刀不能行凶
	killReq := dto.RequestWrapper{ReqType: dto.REQ_KILL, Data: json.RawMessage(`{"victim_id":"p2"}`)}
	if err := ss.HandleAction(sid, "p1", killReq); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if r, _ := findResp(drain(players["p1"].ch), dto.RESP_ERROR); r.ErrMsg != ErrNoWeapon.Error() {
		t.Fatalf("want no weapon error, got %+v", r)
	}

	buy := dto.RequestWrapper{ReqType: dto.REQ_PURCHASE, Data: json.RawMessage(`{"index":0}`)}
	if err := ss.HandleAction(sid, "p1", buy); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	bought, _ := findResp(drain(players["p1"].ch), dto.RESP_PURCHASE)
	if pr := bought.Data.(dto.PurchaseResponse); !pr.Success {
		t.Fatalf("knife purchase should succeed: %+v %s", pr, bought.ErrMsg)
	}

	if err := ss.HandleAction(sid, "p1", buy); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	again, _ := findResp(drain(players["p1"].ch), dto.RESP_PURCHASE)
	if pr := again.Data.(dto.PurchaseResponse); pr.Success || pr.Reason == "" {
		t.Fatalf("second knife purchase should fail with a reason: %+v", pr)
	}

	if err := ss.HandleAction(sid, "p1", killReq); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if _, ok := findResp(drain(players["p2"].ch), dto.RESP_ELIMINATED); !ok {
		t.Fatalf("victim should be told about the kill")
	}

	// 平民没有商店
	if err := ss.HandleAction(sid, "p3", buy); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	denied, _ := findResp(drain(players["p3"].ch), dto.RESP_PURCHASE)
	if pr := denied.Data.(dto.PurchaseResponse); pr.Reason != game.REASON_SHOP_UNAVAILABLE {
		t.Fatalf("civilian purchase should be unavailable, got %+v", pr)
	}
}

func TestSessionService_VigilanteShootsKillerAndWins(t *testing.T) {
	ss, _ := newTestService(t, nil)
	ctx := context.Background()
	sid := createSession(t, ss)
	if err := ss.ForceRole(ctx, "p1", game.ROLE_KILLER); err != nil {
		t.Fatalf("force killer: %v", err)
	}
	if err := ss.ForceRole(ctx, "p2", game.ROLE_VIGILANTE); err != nil {
		t.Fatalf("force vigilante: %v", err)
	}
	players := joinPlayers(t, ss, sid, "p1", "p2", "p3")

	if _, err := ss.StartRound(sid); err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(players["p2"].ch)
	drain(players["p3"].ch)

	// 普通平民没有枪
	shootReq := dto.RequestWrapper{ReqType: dto.REQ_SHOOT, Data: json.RawMessage(`{"victim_id":"p1"}`)}
	if err := ss.HandleAction(sid, "p3", shootReq); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	if r, _ := findResp(drain(players["p3"].ch), dto.RESP_ERROR); r.ErrMsg != ErrNoWeapon.Error() {
		t.Fatalf("civilian without revolver should be refused, got %+v", r)
	}

	if err := ss.HandleAction(sid, "p2", shootReq); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	shot, ok := findResp(drain(players["p2"].ch), dto.RESP_SHOT)
	if !ok || !shot.Data.(dto.ShotResponse).VictimEliminated {
		t.Fatalf("vigilante shot should eliminate the killer: %+v", shot)
	}

	if err := ss.step(1); err != nil {
		t.Fatalf("step: %v", err)
	}
	end, ok := findResp(drain(players["p3"].ch), dto.RESP_ROUND_END)
	if !ok || end.Data.(dto.RoundEndResponse).Status != string(game.WIN_FACTION_A) {
		t.Fatalf("passengers should win, got %+v", end)
	}
}

func TestSessionService_GiveKey(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	joinPlayers(t, ss, sid, "p1")

	if err := ss.GiveKey(sid, "p1", "Cabin 4"); err != nil {
		t.Fatalf("give key: %v", err)
	}
	if err := ss.GiveKey(sid, "nobody", "Cabin 4"); !errors.Is(err, game.ErrUnknownPlayer) {
		t.Fatalf("want unknown player, got %v", err)
	}
	if err := ss.GiveKey(sid, "p1", ""); !errors.Is(err, game.ErrInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	src := newFakeStore()
	src.forced["p1"] = game.ROLE_KILLER
	src.forced["p2"] = "mtrain:ghost"
	src.toggles[game.ROLE_LOOSE_END] = false
	saved := game.DefaultSettings()
	saved.BackfireChance = 0.5
	src.settings = &saved

	registry := game.NewRoleRegistry()
	game.RegisterDefaultRoles(registry)
	forced := game.NewForcedRoles()
	settings := game.DefaultSettings()

	if err := Restore(context.Background(), src, registry, forced, &settings); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if roleID, ok := forced.Get("p1"); !ok || roleID != game.ROLE_KILLER {
		t.Fatalf("forced role not restored: %q", roleID)
	}
	if _, ok := forced.Get("p2"); ok {
		t.Fatalf("unknown role should be skipped")
	}
	r, _ := registry.Get(game.ROLE_LOOSE_END)
	if registry.IsEnabled(r) {
		t.Fatalf("role toggle not restored")
	}
	if settings.BackfireChance != 0.5 {
		t.Fatalf("settings not restored: %+v", settings)
	}
}

func TestSessionService_CloseRejectsCalls(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	players := joinPlayers(t, ss, sid, "p1")

	ss.Close()

	if _, err := ss.ListSessions(); !errors.Is(err, ErrServiceClosed) {
		t.Fatalf("want service closed, got %v", err)
	}

	drain(players["p1"].ch)
	if _, ok := <-players["p1"].ch; ok {
		t.Fatalf("player channels should be closed on shutdown")
	}
}

// gatedStore 让第一次保存规则停住，直到 release 被关闭
type gatedStore struct {
	*fakeStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (gs *gatedStore) SaveSettings(ctx context.Context, settings game.Settings) error {
	first := false
	gs.once.Do(func() { first = true })
	if first {
		close(gs.entered)
		<-gs.release
	}

	return gs.fakeStore.SaveSettings(ctx, settings)
}

func TestSessionService_ConcurrentSavesKeepApplyOrder(t *testing.T) {
	store := &gatedStore{
		fakeStore: newFakeStore(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	ss := NewSessionService(Options{
		Settings:     game.DefaultSettings(),
		Store:        store,
		TickInterval: time.Hour,
	})
	t.Cleanup(ss.Close)

	ctx := context.Background()
	errs := make(chan error, 2)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- ss.SetBackfireChance(ctx, 0.1)
	}()
	<-store.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- ss.SetBackfireChance(ctx, 0.9)
	}()

	// 第二次修改先在内存中生效，再放行第一次保存
	deadline := time.Now().Add(5 * time.Second)
	for {
		s, err := ss.Settings()
		if err != nil {
			t.Fatalf("settings: %v", err)
		}
		if s.BackfireChance == 0.9 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("second change never applied")
		}
		time.Sleep(time.Millisecond)
	}
	close(store.release)

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("set backfire: %v", err)
		}
	}

	if store.saves != 2 {
		t.Fatalf("want 2 saves, got %d", store.saves)
	}
	if store.settings.BackfireChance != 0.9 {
		t.Fatalf("stored snapshot should be the last applied change, got %v", store.settings.BackfireChance)
	}
}

func TestSessionService_StartRefusedWhenKillerRoleDisabled(t *testing.T) {
	ss, _ := newTestService(t, nil)
	sid := createSession(t, ss)
	joinPlayers(t, ss, sid, "p1", "p2", "p3")

	if err := ss.SetRoleEnabled(context.Background(), game.ROLE_KILLER, false); err != nil {
		t.Fatalf("disable killer: %v", err)
	}

	if _, err := ss.StartRound(sid); !errors.Is(err, game.ErrNoKillerRole) {
		t.Fatalf("want no killer role, got %v", err)
	}

	detail, _ := ss.GetSession(sid)
	if detail.Phase != string(game.PHASE_INACTIVE) {
		t.Fatalf("session should stay inactive, got %s", detail.Phase)
	}
}

func TestSessionService_SharedHooksAcrossServices(t *testing.T) {
	hooks := game.NewHooks()
	game.RegisterDefaultHooks(hooks, game.DefaultCatalog())

	for i := 0; i < 2; i++ {
		forced := game.NewForcedRoles()
		forced.Set("p1", game.ROLE_KILLER)
		forced.Set("p2", game.ROLE_VIGILANTE)

		ss := NewSessionService(Options{
			Hooks:        hooks,
			Forced:       forced,
			Settings:     game.DefaultSettings(),
			TickInterval: time.Hour,
			Rng:          rand.New(rand.NewPCG(uint64(i), 2)),
		})
		t.Cleanup(ss.Close)

		sid := createSession(t, ss)
		players := joinPlayers(t, ss, sid, "p1", "p2", "p3")
		if _, err := ss.StartRound(sid); err != nil {
			t.Fatalf("service %d start: %v", i, err)
		}
		drain(players["p2"].ch)

		shootReq := dto.RequestWrapper{ReqType: dto.REQ_SHOOT, Data: json.RawMessage(`{"victim_id":"p1"}`)}
		if err := ss.HandleAction(sid, "p2", shootReq); err != nil {
			t.Fatalf("service %d shoot: %v", i, err)
		}
		if _, ok := findResp(drain(players["p2"].ch), dto.RESP_SHOT); !ok {
			t.Fatalf("service %d: vigilante should be armed", i)
		}
	}
}
