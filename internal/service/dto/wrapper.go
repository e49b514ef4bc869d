package dto

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME = "JoinGame"
	REQ_LIST_SHOP = "ListShop"
	REQ_PURCHASE  = "Purchase"
	REQ_SHOOT     = "Shoot"
	REQ_KILL      = "Kill"
	REQ_EXIT_GAME = "ExitGame"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`
}

func tryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Error(
			"解析请求数据失败",
			zap.String("request_type", reqType),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	return tryUnwrap[JoinGameRequest](wrapper, REQ_JOIN_GAME)
}

func TryUnwrapPurchaseRequest(wrapper RequestWrapper) *PurchaseRequest {
	return tryUnwrap[PurchaseRequest](wrapper, REQ_PURCHASE)
}

func TryUnwrapShootRequest(wrapper RequestWrapper) *ShootRequest {
	return tryUnwrap[ShootRequest](wrapper, REQ_SHOOT)
}

func TryUnwrapKillRequest(wrapper RequestWrapper) *KillRequest {
	return tryUnwrap[KillRequest](wrapper, REQ_KILL)
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_JOIN_GAME     = "JoinGame"
	RESP_PLAYER_JOINED = "PlayerJoined"
	RESP_PLAYER_LEFT   = "PlayerLeft"
	RESP_WELCOME       = "Welcome"
	RESP_SHOP          = "Shop"
	RESP_PURCHASE      = "Purchase"
	RESP_SHOT          = "Shot"
	RESP_ELIMINATED    = "Eliminated"
	RESP_ROUND_END     = "RoundEnd"
	RESP_EXIT_GAME     = "ExitGame"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
