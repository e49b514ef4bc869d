package websocket

import (
	"encoding/json"
	"time"

	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		clientIP := ctx.RemoteAddr()
		svc := appState.SessionSvc

		// 读取首次请求，必须是 JoinGame
		req, ok := readJoinRequest(conn, clientIP)
		if !ok {
			conn.WriteJSON(dto.WrapErrResponse("首次请求必须是 JoinGame"))
			return
		}

		// respCh 交给会话服务后只由服务写入和关闭
		respCh := make(chan dto.ResponseWrapper, RESP_BUFFER_SIZE)

		joined, err := svc.Join(*req, respCh)
		if err != nil {
			zap.L().Error(
				"加入会话失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)

			conn.WriteJSON(dto.WrapErrResponse(err.Error()))
			return
		}

		sessionID := joined.SessionID
		playerID := joined.Joiner.ID

		zap.L().Info(
			"玩家成功加入会话",
			zap.String("client_ip", clientIP),
			zap.String("session_id", sessionID),
			zap.String("player_id", playerID),
		)

		writeDoneCh := make(chan struct{})

		go writeLoop(conn, respCh, writeDoneCh, clientIP)

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			var wrapper dto.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				if err := svc.SendError(sessionID, playerID, "无效的请求格式"); err != nil {
					zap.L().Warn("返回错误响应失败", zap.Error(err))
				}

				continue
			}

			if wrapper.ReqType == dto.REQ_EXIT_GAME {
				break
			}

			if err := svc.HandleAction(sessionID, playerID, wrapper); err != nil {
				zap.L().Warn(
					"处理玩家请求失败",
					zap.String("player_id", playerID),
					zap.String("request_type", wrapper.ReqType),
					zap.Error(err),
				)

				// 服务已经不认识这条连接，不再继续读取
				break
			}
		}

		zap.L().Info(
			"客户端连接断开，通知会话清理玩家",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)

		if err := svc.Leave(sessionID, playerID); err != nil {
			zap.L().Warn(
				"玩家离开会话失败",
				zap.String("player_id", playerID),
				zap.Error(err),
			)
		}

		// 等待写协程把剩余消息发完
		select {
		case <-writeDoneCh:
		case <-time.After(WRITER_EXIT_TIMEOUT):
			zap.L().Warn(
				"等待写协程退出超时，强制关闭连接",
				zap.String("player_id", playerID),
			)
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)
	}
}

func readJoinRequest(conn *websocket.Conn, clientIP string) (*dto.JoinGameRequest, bool) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		zap.L().Error(
			"读取首次请求失败",
			zap.String("client_ip", clientIP),
			zap.Error(err),
		)
		return nil, false
	}

	var wrapper dto.RequestWrapper

	if err := json.Unmarshal(msg, &wrapper); err != nil {
		zap.L().Error(
			"解析首次请求失败",
			zap.String("client_ip", clientIP),
			zap.Error(err),
		)
		return nil, false
	}

	req := dto.TryUnwrapJoinGameRequest(wrapper)
	if req == nil {
		zap.L().Error(
			"首次请求不是JoinGame类型",
			zap.String("client_ip", clientIP),
			zap.String("request_type", wrapper.ReqType),
		)
		return nil, false
	}

	return req, true
}

// writeLoop 是连接上唯一的写入者，respCh 被关闭后发送关闭帧并退出
func writeLoop(conn *websocket.Conn, respCh <-chan dto.ResponseWrapper, doneCh chan<- struct{}, clientIP string) {
	defer close(doneCh)

	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

			zap.L().Debug(
				"发送心跳",
				zap.String("client_ip", clientIP),
			)

		case resp, ok := <-respCh:
			if !ok {
				zap.L().Info(
					"响应通道已关闭，退出写协程",
					zap.String("client_ip", clientIP),
				)

				conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
				conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				)
				return
			}

			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteJSON(resp); err != nil {
				zap.L().Error(
					"发送消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

			zap.L().Debug(
				"发送消息",
				zap.String("client_ip", clientIP),
				zap.String("response_type", resp.RespType),
			)
		}
	}
}
