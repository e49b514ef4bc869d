package service

import (
	"errors"
	"time"

	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/service/game"

	"go.uber.org/zap"
)

var (
	ErrPlayerOnline = errors.New("该玩家已经在线")
	ErrNoWeapon     = errors.New("没有可用的武器")
	ErrGunBanned    = errors.New("误伤平民后不能再使用枪械")
	ErrNotKiller    = errors.New("只有杀手可以行凶")
)

// member 是一条玩家连接，respCh 只在模拟协程上写入和关闭
type member struct {
	ID     string
	Name   string
	respCh chan<- dto.ResponseWrapper
}

type session struct {
	id   string
	name string

	createdAt  time.Time
	lastActive time.Time

	members map[string]*member
	// 加入顺序，决定开局花名册顺序
	order []string

	inventory  *game.MemoryInventory
	controller *game.Controller

	// 自动开始倒计时，单位 tick，-1 表示未计时
	autostartLeft int
}

func (s *session) expired(now time.Time) bool {
	return len(s.members) == 0 &&
		s.controller.Phase() != game.PHASE_ACTIVE &&
		now.Sub(s.lastActive) > SESSION_IDLE_TIMEOUT
}

func (s *session) unicast(playerID string, resp dto.ResponseWrapper) {
	m, ok := s.members[playerID]
	if !ok {
		zap.L().Debug(
			"无法找到玩家进行单播响应",
			zap.String("session_id", s.id),
			zap.String("player_id", playerID),
		)
		return
	}

	select {
	case m.respCh <- resp:
	default:
		zap.L().Warn(
			"发送单播响应失败：玩家响应通道已满",
			zap.String("session_id", s.id),
			zap.String("player_id", playerID),
		)
	}
}

func (s *session) broadcast(resp dto.ResponseWrapper, except string) {
	for _, id := range s.order {
		if id == except {
			continue
		}
		s.unicast(id, resp)
	}
}

func (s *session) closeAll() {
	for _, id := range s.order {
		close(s.members[id].respCh)
	}

	s.members = make(map[string]*member)
	s.order = nil
}

func (s *session) roster() []game.RosterEntry {
	out := make([]game.RosterEntry, 0, len(s.order))
	for _, id := range s.order {
		m := s.members[id]
		out = append(out, game.RosterEntry{ID: m.ID, Name: m.Name})
	}

	return out
}

func (s *session) start() (game.Assignment, error) {
	s.autostartLeft = -1
	return s.controller.Start(s.roster())
}

func (s *session) tick(settings *game.Settings) {
	if s.controller.Phase() == game.PHASE_ACTIVE {
		if _, err := s.controller.Tick(); err != nil {
			zap.L().Warn("对局推进失败", zap.String("session_id", s.id), zap.Error(err))
		}
		return
	}

	s.tickAutostart(settings)
}

func (s *session) tickAutostart(settings *game.Settings) {
	if settings.AutostartSeconds <= 0 || len(s.order) == 0 || len(s.order) < settings.MinPlayers {
		s.autostartLeft = -1
		return
	}

	if s.autostartLeft < 0 {
		s.autostartLeft = settings.AutostartSeconds * game.TICKS_PER_SECOND
	}

	s.autostartLeft--
	if s.autostartLeft > 0 {
		return
	}

	if _, err := s.start(); err != nil {
		zap.L().Warn("自动开始失败", zap.String("session_id", s.id), zap.Error(err))
		return
	}

	zap.S().Infof("会话 %s 倒计时结束，自动开始", s.id)
}

// Welcome 实现 game.Notifier
func (s *session) Welcome(msg game.WelcomeMessage) {
	resp := dto.WelcomeResponse{
		RoleID:         msg.RoleID,
		KillerCount:    msg.KillerCount,
		NonKillerCount: msg.NonKillerCount,
		Balance:        s.controller.Balance(msg.PlayerID),
	}

	if p, ok := s.controller.Player(msg.PlayerID); ok && p.Role != nil {
		resp.Faction = string(p.Faction())
		resp.Color = p.Role.Color
	}

	s.unicast(msg.PlayerID, dto.WrapResponse(dto.RESP_WELCOME, resp))
}

// RoundEnded 实现 game.Notifier
func (s *session) RoundEnded(end game.RoundEnd) {
	s.broadcast(dto.WrapResponse(dto.RESP_ROUND_END, roundEndView(end)), "")
}

func roundEndView(end game.RoundEnd) dto.RoundEndResponse {
	players := make([]dto.PlayerView, 0, len(end.Roster))
	for _, p := range end.Roster {
		players = append(players, playerView(p, true))
	}

	return dto.RoundEndResponse{
		Status:  string(end.Status),
		Winner:  end.Winner,
		Players: players,
	}
}

func playerView(p game.PlayerState, reveal bool) dto.PlayerView {
	v := dto.PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Alive:     p.Alive,
		Cause:     string(p.Cause),
		Spectator: p.Spectator,
	}

	if reveal && p.Role != nil {
		v.RoleID = p.Role.ID
	}

	return v
}

func (s *session) memberView(id string) dto.PlayerView {
	m, online := s.members[id]

	if p, ok := s.controller.Player(id); ok {
		v := playerView(*p, false)
		v.Online = online
		return v
	}

	v := dto.PlayerView{ID: id, Alive: true, Online: online}
	if online {
		v.Name = m.Name
	}

	return v
}

func (s *session) summary() dto.SessionSummary {
	return dto.SessionSummary{
		ID:      s.id,
		Name:    s.name,
		Phase:   string(s.controller.Phase()),
		Players: len(s.order),
	}
}

func (s *session) detail() dto.SessionDetail {
	d := dto.SessionDetail{
		SessionSummary: s.summary(),
		TimeLeft:       s.controller.TimeLeft(),
		KillerCount:    s.controller.KillerCount(),
		AutostartLeft:  s.autostartLeft,
		Roster:         make([]dto.PlayerView, 0, len(s.order)),
	}

	if s.controller.Phase() == game.PHASE_ACTIVE {
		for _, p := range s.controller.Players() {
			v := playerView(p, true)
			_, v.Online = s.members[p.ID]
			d.Roster = append(d.Roster, v)
		}
	} else {
		for _, id := range s.order {
			d.Roster = append(d.Roster, s.memberView(id))
		}
	}

	if end, ok := s.controller.LastRoundEnd(); ok {
		view := roundEndView(end)
		d.LastRound = &view
	}

	return d
}

func (s *session) shopView(playerID string) dto.ShopResponse {
	c := s.controller
	entries := c.ShopEntries(playerID)

	items := make([]dto.ShopItem, 0, len(entries))
	for i, e := range entries {
		stock := c.Ledger().Stock(playerID, e)
		le, _ := c.Ledger().Lookup(playerID, e.ID)

		items = append(items, dto.ShopItem{
			Index:        i,
			ID:           e.ID,
			Item:         e.DisplayItem,
			Price:        e.Price,
			Category:     e.Category,
			CooldownLeft: max(le.CooldownExpiresAt-c.Now(), 0),
			Stock:        stock,
		})
	}

	return dto.ShopResponse{
		Balance: c.Balance(playerID),
		Items:   items,
	}
}

// shoot 要求开枪者持有左轮且没有被禁枪
func (s *session) shoot(shooterID, victimID string) (game.ShotOutcome, error) {
	p, ok := s.controller.Player(shooterID)
	if !ok || !p.Participating() {
		return game.ShotOutcome{}, game.ErrUnknownPlayer
	}
	if p.GunBanned {
		return game.ShotOutcome{}, ErrGunBanned
	}
	if !s.inventory.Has(shooterID, game.ITEM_REVOLVER) {
		return game.ShotOutcome{}, ErrNoWeapon
	}

	out, err := s.controller.ResolveShot(shooterID, victimID)
	if err != nil {
		return out, err
	}

	s.broadcast(dto.WrapResponse(dto.RESP_SHOT, dto.ShotResponse{
		ShooterID:        shooterID,
		VictimID:         victimID,
		Backfired:        out.Backfired,
		VictimEliminated: out.VictimEliminated,
		Punishment:       string(out.Punishment),
	}), shooterID)

	s.announceIfEliminated(victimID)
	s.announceIfEliminated(shooterID)

	return out, nil
}

// kill 是杀手持刀的近身击杀
func (s *session) kill(killerID, victimID string) error {
	p, ok := s.controller.Player(killerID)
	if !ok || !p.Participating() {
		return game.ErrUnknownPlayer
	}
	if p.Faction() != game.FACTION_KILLER {
		return ErrNotKiller
	}
	if !s.inventory.Has(killerID, game.ITEM_KNIFE) {
		return ErrNoWeapon
	}
	if killerID == victimID {
		return game.ErrInvalidArgument
	}

	if err := s.controller.Eliminate(victimID, game.CAUSE_KILLED); err != nil {
		return err
	}

	s.broadcast(dto.WrapResponse(dto.RESP_ELIMINATED, dto.EliminatedResponse{
		PlayerID: victimID,
		Cause:    string(game.CAUSE_KILLED),
	}), killerID)

	return nil
}

func (s *session) announceIfEliminated(playerID string) {
	p, ok := s.controller.Player(playerID)
	if !ok || p.Alive {
		return
	}

	s.broadcast(dto.WrapResponse(dto.RESP_ELIMINATED, dto.EliminatedResponse{
		PlayerID: p.ID,
		Cause:    string(p.Cause),
	}), "")
}
