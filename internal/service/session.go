package service

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/service/game"

	"go.uber.org/zap"
)

const (
	// 调用方等待请求进入模拟协程的最长时间
	SUBMIT_TIMEOUT = 5 * time.Second
	// 空会话的清理周期
	CLEANUP_INTERVAL = time.Minute
	// 没有连接的会话在这段时间后被清理
	SESSION_IDLE_TIMEOUT = 10 * time.Minute

	REQ_QUEUE_SIZE = 256
)

var (
	ErrServiceBusy     = errors.New("会话服务繁忙，请稍后再试")
	ErrServiceClosed   = errors.New("会话服务已关闭")
	ErrSessionNotFound = errors.New("会话不存在")
)

type Options struct {
	Registry *game.RoleRegistry
	Hooks    *game.Hooks
	Forced   *game.ForcedRoles
	Settings game.Settings
	Store    Persister

	TickInterval   time.Duration
	InventorySlots int
	Rng            *rand.Rand
}

// SessionService 持有唯一的模拟协程，所有引擎状态只在这个协程上读写
type SessionService struct {
	registry *game.RoleRegistry
	hooks    *game.Hooks
	forced   *game.ForcedRoles
	settings *game.Settings
	store    Persister
	rng      *rand.Rand

	tickInterval   time.Duration
	inventorySlots int

	sessions map[string]*session
	writes   *writeQueue

	reqCh     chan func()
	doneCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
}

func NewSessionService(opts Options) *SessionService {
	if opts.Registry == nil {
		opts.Registry = game.NewRoleRegistry()
		game.RegisterDefaultRoles(opts.Registry)
	}
	if opts.Hooks == nil {
		opts.Hooks = game.NewHooks()
		game.RegisterDefaultHooks(opts.Hooks, game.DefaultCatalog())
	}
	if opts.Forced == nil {
		opts.Forced = game.NewForcedRoles()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / game.TICKS_PER_SECOND
	}
	if opts.Rng == nil {
		opts.Rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	settings := opts.Settings

	ss := &SessionService{
		registry:       opts.Registry,
		hooks:          opts.Hooks,
		forced:         opts.Forced,
		settings:       &settings,
		store:          opts.Store,
		rng:            opts.Rng,
		tickInterval:   opts.TickInterval,
		inventorySlots: opts.InventorySlots,
		sessions:       make(map[string]*session),
		writes:         newWriteQueue(),
		reqCh:          make(chan func(), REQ_QUEUE_SIZE),
		doneCh:         make(chan struct{}),
		stoppedCh:      make(chan struct{}),
	}

	go ss.loop()

	zap.S().Infof("会话服务已启动，tick 间隔 %v", ss.tickInterval)

	return ss
}

func (ss *SessionService) loop() {
	defer close(ss.stoppedCh)

	ticker := time.NewTicker(ss.tickInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(CLEANUP_INTERVAL)
	defer cleanup.Stop()

	for {
		select {
		case <-ss.doneCh:
			ss.shutdown()
			zap.S().Info("会话服务协程退出")
			return

		case fn := <-ss.reqCh:
			ss.run(fn)

		case <-ticker.C:
			ss.tick()

		case now := <-cleanup.C:
			ss.cleanup(now)
		}
	}
}

func (ss *SessionService) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("处理请求时发生异常", zap.Any("panic", r))
		}
	}()

	fn()
}

// submit 把 fn 放到模拟协程上执行并等待完成
func (ss *SessionService) submit(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	timer := time.NewTimer(SUBMIT_TIMEOUT)
	defer timer.Stop()

	select {
	case ss.reqCh <- wrapped:
	case <-ss.doneCh:
		return ErrServiceClosed
	case <-timer.C:
		zap.L().Warn("请求无法及时进入模拟协程")
		return ErrServiceBusy
	}

	select {
	case <-done:
		return nil
	case <-ss.stoppedCh:
		select {
		case <-done:
			return nil
		default:
			return ErrServiceClosed
		}
	}
}

func (ss *SessionService) tick() {
	for _, sess := range ss.sessions {
		sess.tick(ss.settings)
	}
}

func (ss *SessionService) cleanup(now time.Time) {
	for id, sess := range ss.sessions {
		if !sess.expired(now) {
			continue
		}

		zap.S().Infof("会话 %s 长时间无人连接，开始清理", id)

		sess.controller.Stop()
		delete(ss.sessions, id)
	}
}

func (ss *SessionService) shutdown() {
	for id, sess := range ss.sessions {
		sess.controller.Stop()
		sess.closeAll()
		delete(ss.sessions, id)
	}
}

// Close 停止模拟协程，关闭所有玩家的响应通道
func (ss *SessionService) Close() {
	ss.closeOnce.Do(func() {
		close(ss.doneCh)
	})

	<-ss.stoppedCh
}

func (ss *SessionService) newSession(name string) *session {
	sess := &session{
		id:            GenID(),
		name:          name,
		createdAt:     time.Now(),
		lastActive:    time.Now(),
		members:       make(map[string]*member),
		inventory:     game.NewMemoryInventory(ss.inventorySlots),
		autostartLeft: -1,
	}

	sess.controller = game.NewController(sess.id, game.ControllerDeps{
		Registry:  ss.registry,
		Hooks:     ss.hooks,
		Forced:    ss.forced,
		Settings:  ss.settings,
		Inventory: sess.inventory,
		Notifier:  sess,
		Rng:       rand.New(rand.NewPCG(ss.rng.Uint64(), ss.rng.Uint64())),
	})

	ss.sessions[sess.id] = sess

	return sess
}

func (ss *SessionService) CreateSession(req dto.CreateSessionRequest) (dto.CreateSessionResponse, error) {
	if req.Name == "" {
		return dto.CreateSessionResponse{}, errors.New("会话名称不能为空")
	}

	var resp dto.CreateSessionResponse

	err := ss.submit(func() {
		sess := ss.newSession(req.Name)
		resp = dto.CreateSessionResponse{
			SessionID: sess.id,
			Name:      sess.name,
		}
	})
	if err != nil {
		return dto.CreateSessionResponse{}, err
	}

	zap.S().Infof("会话 %s(%s) 已创建", resp.SessionID, resp.Name)

	return resp, nil
}

func (ss *SessionService) ListSessions() ([]dto.SessionSummary, error) {
	var out []dto.SessionSummary

	err := ss.submit(func() {
		out = make([]dto.SessionSummary, 0, len(ss.sessions))
		for _, sess := range ss.sessions {
			out = append(out, sess.summary())
		}
	})

	return out, err
}

func (ss *SessionService) GetSession(sessionID string) (dto.SessionDetail, error) {
	var (
		out    dto.SessionDetail
		getErr error
	)

	err := ss.submit(func() {
		sess := ss.sessions[sessionID]
		if sess == nil {
			getErr = ErrSessionNotFound
			return
		}
		out = sess.detail()
	})
	if err != nil {
		return dto.SessionDetail{}, err
	}

	return out, getErr
}

// withSession 在模拟协程上对指定会话执行 fn
func (ss *SessionService) withSession(sessionID string, fn func(sess *session) error) error {
	var opErr error

	err := ss.submit(func() {
		sess := ss.sessions[sessionID]
		if sess == nil {
			opErr = ErrSessionNotFound
			return
		}

		sess.lastActive = time.Now()
		opErr = fn(sess)
	})
	if err != nil {
		return err
	}

	return opErr
}
