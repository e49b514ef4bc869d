package game

import (
	"errors"
	"fmt"
)

// 错误分类
type ErrorKind string

const (
	KIND_VALIDATION         ErrorKind = "Validation"
	KIND_PRECONDITION       ErrorKind = "Precondition"
	KIND_RESOURCE_EXHAUSTED ErrorKind = "ResourceExhausted"
	KIND_INVARIANT          ErrorKind = "InvariantViolation"
)

// Error 是引擎对外返回的唯一错误类型，Code 面向客户端，Message 面向人
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is 按 Code 比较，这样带格式化信息的错误也能和哨兵值匹配
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}

	return false
}

func newError(kind ErrorKind, code string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// 购买失败原因
const (
	REASON_SHOP_UNAVAILABLE   = "SHOP_UNAVAILABLE"
	REASON_INVALID_ITEM       = "INVALID_ITEM"
	REASON_ON_COOLDOWN        = "ON_COOLDOWN"
	REASON_OUT_OF_STOCK       = "OUT_OF_STOCK"
	REASON_INSUFFICIENT_FUNDS = "INSUFFICIENT_FUNDS"
	REASON_DENIED             = "DENIED"
	REASON_PURCHASE_FAILED    = "PURCHASE_FAILED"
)

var (
	ErrShopUnavailable   = &Error{KIND_PRECONDITION, REASON_SHOP_UNAVAILABLE, "商店当前不可用"}
	ErrInvalidItem       = &Error{KIND_VALIDATION, REASON_INVALID_ITEM, "无效的商品"}
	ErrOnCooldown        = &Error{KIND_RESOURCE_EXHAUSTED, REASON_ON_COOLDOWN, "商品冷却中"}
	ErrOutOfStock        = &Error{KIND_RESOURCE_EXHAUSTED, REASON_OUT_OF_STOCK, "商品已售罄"}
	ErrInsufficientFunds = &Error{KIND_RESOURCE_EXHAUSTED, REASON_INSUFFICIENT_FUNDS, "余额不足"}
	ErrDenied            = &Error{KIND_PRECONDITION, REASON_DENIED, "购买被拒绝"}
	ErrPurchaseFailed    = &Error{KIND_RESOURCE_EXHAUSTED, REASON_PURCHASE_FAILED, "购买执行失败"}
)

var (
	ErrUnknownRole      = &Error{KIND_VALIDATION, "UNKNOWN_ROLE", "未知的角色"}
	ErrUnknownPlayer    = &Error{KIND_INVARIANT, "UNKNOWN_PLAYER", "玩家不在本局中"}
	ErrInvalidArgument  = &Error{KIND_VALIDATION, "INVALID_ARGUMENT", "参数无效"}
	ErrSpecialRole      = &Error{KIND_PRECONDITION, "SPECIAL_ROLE", "特殊角色不能被禁用"}
	ErrRoundActive      = &Error{KIND_PRECONDITION, "ROUND_ACTIVE", "本局游戏已经开始"}
	ErrRoundNotActive   = &Error{KIND_PRECONDITION, "ROUND_NOT_ACTIVE", "当前没有进行中的游戏"}
	ErrNotEnoughPlayers = &Error{KIND_PRECONDITION, "NOT_ENOUGH_PLAYERS", "玩家数量不足"}
	ErrPlayerEliminated = &Error{KIND_PRECONDITION, "PLAYER_ELIMINATED", "玩家已出局"}
	ErrInventoryFull    = &Error{KIND_RESOURCE_EXHAUSTED, "INVENTORY_FULL", "背包已满"}
	ErrNoKillerRole     = &Error{KIND_PRECONDITION, "NO_KILLER_ROLE", "没有可分配的杀手角色"}
)

// ReasonCode 取出面向客户端的错误码，非引擎错误统一视为执行失败
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}

	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}

	return REASON_PURCHASE_FAILED
}

// KindOf 返回错误分类
func KindOf(err error) ErrorKind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}

	return KIND_INVARIANT
}
