package service

import (
	"errors"

	"mystery-train-be/internal/service/dto"
	"mystery-train-be/internal/service/game"

	"go.uber.org/zap"
)

// Join 登记一条玩家连接，加入响应会先于其它消息进入 respCh
func (ss *SessionService) Join(req dto.JoinGameRequest, respCh chan<- dto.ResponseWrapper) (dto.JoinGameResponse, error) {
	if req.SessionID == "" {
		return dto.JoinGameResponse{}, errors.New("会话 ID 不能为空")
	}
	if req.PlayerName == "" {
		return dto.JoinGameResponse{}, errors.New("玩家名称不能为空")
	}
	if respCh == nil {
		return dto.JoinGameResponse{}, errors.New("响应通道不能为空")
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = GenShortID()
	}

	var resp dto.JoinGameResponse

	err := ss.withSession(req.SessionID, func(sess *session) error {
		if _, online := sess.members[playerID]; online {
			return ErrPlayerOnline
		}

		sess.members[playerID] = &member{
			ID:     playerID,
			Name:   req.PlayerName,
			respCh: respCh,
		}
		sess.order = append(sess.order, playerID)

		active := sess.controller.Phase() == game.PHASE_ACTIVE
		if active {
			sess.controller.OnPlayerJoin(playerID, req.PlayerName)
		}

		resp = dto.JoinGameResponse{
			SessionID:   sess.id,
			Joiner:      sess.memberView(playerID),
			RoundActive: active,
		}

		sess.unicast(playerID, dto.WrapResponse(dto.RESP_JOIN_GAME, resp))
		sess.broadcast(dto.WrapResponse(dto.RESP_PLAYER_JOINED, dto.PlayerJoinedResponse{
			Player: resp.Joiner,
		}), playerID)

		return nil
	})
	if err != nil {
		zap.L().Warn(
			"玩家加入会话失败",
			zap.String("session_id", req.SessionID),
			zap.String("player_name", req.PlayerName),
			zap.Error(err),
		)
		return dto.JoinGameResponse{}, err
	}

	zap.L().Info(
		"玩家加入会话",
		zap.String("session_id", req.SessionID),
		zap.String("player_id", playerID),
		zap.String("player_name", req.PlayerName),
		zap.Bool("spectator", resp.Joiner.Spectator),
	)

	return resp, nil
}

// Leave 断开连接，对局中的存活玩家视为逃离；随后关闭该玩家的响应通道
func (ss *SessionService) Leave(sessionID, playerID string) error {
	return ss.withSession(sessionID, func(sess *session) error {
		m, ok := sess.members[playerID]
		if !ok {
			return game.ErrUnknownPlayer
		}

		sess.unicast(playerID, dto.WrapResponse(dto.RESP_EXIT_GAME, dto.PlayerLeftResponse{PlayerID: playerID}))

		delete(sess.members, playerID)
		for i, id := range sess.order {
			if id == playerID {
				sess.order = append(sess.order[:i], sess.order[i+1:]...)
				break
			}
		}
		close(m.respCh)

		sess.controller.OnPlayerDisconnect(playerID)
		sess.announceIfEliminated(playerID)
		sess.broadcast(dto.WrapResponse(dto.RESP_PLAYER_LEFT, dto.PlayerLeftResponse{PlayerID: playerID}), "")

		zap.L().Info(
			"玩家离开会话",
			zap.String("session_id", sessionID),
			zap.String("player_id", playerID),
		)

		return nil
	})
}

// HandleAction 处理玩家在连接上发来的请求，响应直接写入该玩家的通道
func (ss *SessionService) HandleAction(sessionID, playerID string, req dto.RequestWrapper) error {
	return ss.withSession(sessionID, func(sess *session) error {
		if _, ok := sess.members[playerID]; !ok {
			return game.ErrUnknownPlayer
		}

		sess.unicast(playerID, sess.handle(playerID, req))
		return nil
	})
}

// SendError 给玩家回一条错误响应
func (ss *SessionService) SendError(sessionID, playerID, errMsg string) error {
	return ss.withSession(sessionID, func(sess *session) error {
		sess.unicast(playerID, dto.WrapErrResponse(errMsg))
		return nil
	})
}

func (s *session) handle(playerID string, req dto.RequestWrapper) dto.ResponseWrapper {
	switch req.ReqType {
	case dto.REQ_LIST_SHOP:
		return dto.WrapResponse(dto.RESP_SHOP, s.shopView(playerID))

	case dto.REQ_PURCHASE:
		r := dto.TryUnwrapPurchaseRequest(req)
		if r == nil {
			return dto.WrapErrResponse("无效的请求格式")
		}

		err := s.controller.Purchase(playerID, r.Index)

		resp := dto.WrapResponse(dto.RESP_PURCHASE, dto.PurchaseResponse{
			Index:   r.Index,
			Success: err == nil,
			Reason:  game.ReasonCode(err),
			Balance: s.controller.Balance(playerID),
		})
		if err != nil {
			resp.ErrMsg = err.Error()
		}

		return resp

	case dto.REQ_SHOOT:
		r := dto.TryUnwrapShootRequest(req)
		if r == nil {
			return dto.WrapErrResponse("无效的请求格式")
		}

		out, err := s.shoot(playerID, r.VictimID)
		if err != nil {
			return dto.WrapErrResponse(err.Error())
		}

		return dto.WrapResponse(dto.RESP_SHOT, dto.ShotResponse{
			ShooterID:        playerID,
			VictimID:         r.VictimID,
			Backfired:        out.Backfired,
			VictimEliminated: out.VictimEliminated,
			Punishment:       string(out.Punishment),
		})

	case dto.REQ_KILL:
		r := dto.TryUnwrapKillRequest(req)
		if r == nil {
			return dto.WrapErrResponse("无效的请求格式")
		}

		if err := s.kill(playerID, r.VictimID); err != nil {
			return dto.WrapErrResponse(err.Error())
		}

		return dto.WrapResponse(dto.RESP_ELIMINATED, dto.EliminatedResponse{
			PlayerID: r.VictimID,
			Cause:    string(game.CAUSE_KILLED),
		})
	}

	return dto.WrapErrResponse("无法处理请求：不支持该请求类型")
}
