package ws

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/SAMIHZS/mafia-game/internal/auth"
	"github.com/SAMIHZS/mafia-game/internal/game"
	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
)

type ConnCtx struct {
	IP string
}

type Server struct {
	Dir    *game.Directory
	hub    *Hub
	tokens *auth.TokenManager
	joins  *JoinLimiter
}

// New wires the dispatcher. dir must have been built with hub as its channel.
// tokens may be nil, in which case no rejoin tokens are issued and rejoin
// works by room code and name only.
func New(dir *game.Directory, hub *Hub, tokens *auth.TokenManager, joins *JoinLimiter) *Server {
	return &Server{Dir: dir, hub: hub, tokens: tokens, joins: joins}
}

type createPayload struct {
	Name     string        `json:"name"`
	Settings game.Settings `json:"settings"`
}

type joinPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type targetPayload struct {
	TargetID string `json:"targetId"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type rejoinPayload struct {
	Token      string `json:"token"`
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		ip := clientIP(s)
		s.SetContext(&ConnCtx{IP: ip})
		srv.hub.register(s)
		log.Info().Str("sid", s.ID()).Str("ip", ip).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "create_room", func(s socketio.Conn, payload createPayload) map[string]any {
		return srv.createRoom(s.ID(), connIP(s), payload)
	})

	io.OnEvent("/", "join_room", func(s socketio.Conn, payload joinPayload) map[string]any {
		return srv.joinRoom(s.ID(), connIP(s), payload)
	})

	io.OnEvent("/", "leave_room", func(s socketio.Conn) map[string]any {
		return srv.leaveRoom(s.ID())
	})

	io.OnEvent("/", "start_game", func(s socketio.Conn) map[string]any {
		return srv.startGame(s.ID())
	})

	io.OnEvent("/", "mafia_kill", func(s socketio.Conn, payload targetPayload) map[string]any {
		return srv.nightAction(s.ID(), game.ActionKill, payload)
	})

	io.OnEvent("/", "doctor_save", func(s socketio.Conn, payload targetPayload) map[string]any {
		return srv.nightAction(s.ID(), game.ActionSave, payload)
	})

	io.OnEvent("/", "detective_check", func(s socketio.Conn, payload targetPayload) map[string]any {
		return srv.nightAction(s.ID(), game.ActionInvestigate, payload)
	})

	io.OnEvent("/", "cast_vote", func(s socketio.Conn, payload targetPayload) map[string]any {
		return srv.castVote(s.ID(), payload)
	})

	io.OnEvent("/", "player_message", func(s socketio.Conn, payload chatPayload) map[string]any {
		return srv.chat(s.ID(), payload)
	})

	io.OnEvent("/", "rejoin_room", func(s socketio.Conn, payload rejoinPayload) map[string]any {
		return srv.rejoinRoom(s.ID(), connIP(s), payload)
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Err(e).Str("sid", s.ID()).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.disconnect(s.ID())
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve")
		}
	}()

	// Mount to router
	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) createRoom(connID, ip string, p createPayload) map[string]any {
	if !srv.joins.Allow(ip) {
		return srv.err(connID, "rate_limited", "Too many join attempts. Wait 1 minute.")
	}
	sess, err := srv.Dir.Create(p.Settings)
	if err != nil {
		return srv.fail(connID, "create_room", err)
	}
	log.Info().Str("sid", connID).Str("code", sess.Code).Msg("create_room")
	if strings.TrimSpace(p.Name) == "" {
		return map[string]any{"roomCode": sess.Code}
	}
	ack := srv.join(connID, sess.Code, p.Name)
	ack["roomCode"] = sess.Code
	return ack
}

func (srv *Server) joinRoom(connID, ip string, p joinPayload) map[string]any {
	if !srv.joins.Allow(ip) {
		return srv.err(connID, "rate_limited", "Too many join attempts. Wait 1 minute.")
	}
	return srv.join(connID, p.Code, p.Name)
}

func (srv *Server) join(connID, code, name string) map[string]any {
	sess, player, err := srv.Dir.Join(connID, code, name)
	if err != nil {
		return srv.fail(connID, "join_room", err)
	}
	srv.issueToken(connID, sess.Code, player)
	log.Info().Str("sid", connID).Str("code", sess.Code).Str("playerId", player.ID).Msg("join_room")
	return map[string]any{"roomId": sess.Code, "playerId": player.ID, "isHost": player.IsHost}
}

func (srv *Server) leaveRoom(connID string) map[string]any {
	if err := srv.Dir.Leave(connID); err != nil {
		return srv.fail(connID, "leave_room", err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) startGame(connID string) map[string]any {
	sess, err := srv.Dir.Session(connID)
	if err == nil {
		err = sess.Start(connID)
	}
	if err != nil {
		return srv.fail(connID, "start_game", err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) nightAction(connID string, kind game.ActionKind, p targetPayload) map[string]any {
	sess, err := srv.Dir.Session(connID)
	if err == nil {
		err = sess.SubmitNightAction(connID, kind, p.TargetID)
	}
	if err != nil {
		return srv.fail(connID, string(kind), err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) castVote(connID string, p targetPayload) map[string]any {
	sess, err := srv.Dir.Session(connID)
	if err == nil {
		err = sess.CastVote(connID, p.TargetID)
	}
	if err != nil {
		return srv.fail(connID, "cast_vote", err)
	}
	return map[string]any{"ok": true}
}

func (srv *Server) chat(connID string, p chatPayload) map[string]any {
	sess, err := srv.Dir.Session(connID)
	if err == nil {
		err = sess.SendChat(connID, p.Text)
	}
	if err != nil {
		return srv.fail(connID, "player_message", err)
	}
	return map[string]any{"ok": true}
}

// rejoinRoom accepts either a rejoin token or a room code and player name.
func (srv *Server) rejoinRoom(connID, ip string, p rejoinPayload) map[string]any {
	if !srv.joins.Allow(ip) {
		return srv.err(connID, "rate_limited", "Too many join attempts. Wait 1 minute.")
	}
	code, playerID, name := p.RoomCode, "", p.PlayerName
	if p.Token != "" {
		if srv.tokens == nil {
			return srv.fail(connID, "rejoin_room", fmt.Errorf("%w: tokens are not enabled", game.ErrNotAuthorized))
		}
		id, err := srv.tokens.Verify(p.Token)
		if err != nil {
			return srv.fail(connID, "rejoin_room", fmt.Errorf("%w: %w", game.ErrSessionExpired, err))
		}
		code, playerID, name = id.RoomCode, id.PlayerID, id.PlayerName
	}
	sess, player, err := srv.Dir.Rejoin(connID, code, playerID, name)
	if err != nil {
		return srv.fail(connID, "rejoin_room", err)
	}
	srv.issueToken(connID, sess.Code, player)
	log.Info().Str("sid", connID).Str("code", sess.Code).Str("playerId", player.ID).Msg("rejoin_room")
	return map[string]any{"roomId": sess.Code, "playerId": player.ID, "isHost": player.IsHost}
}

func (srv *Server) disconnect(connID string) {
	srv.Dir.Disconnect(connID)
	srv.hub.unregister(connID)
}

func (srv *Server) issueToken(connID, code string, p game.Player) {
	if srv.tokens == nil {
		return
	}
	token, err := srv.tokens.Issue(auth.Identity{RoomCode: code, PlayerID: p.ID, PlayerName: p.Name})
	if err != nil {
		log.Error().Err(err).Str("sid", connID).Str("code", code).Msg("issue rejoin token")
		return
	}
	srv.hub.Send(connID, game.AuthToken{Token: token})
}

// fail reports err privately. Errors outside the game's taxonomy are logged
// and hidden from the client.
func (srv *Server) fail(connID, event string, err error) map[string]any {
	code := game.ErrorCode(err)
	if code == "internal" {
		log.Error().Err(err).Str("sid", connID).Str("event", event).Msg("request failed")
		return srv.err(connID, code, "Internal server error")
	}
	log.Debug().Err(err).Str("sid", connID).Str("event", event).Msg("request rejected")
	msg := game.NewErrorMessage(err)
	srv.hub.Send(connID, msg)
	return map[string]any{"error": msg.Message}
}

func (srv *Server) err(connID, code, message string) map[string]any {
	srv.hub.Send(connID, game.ErrorMessage{Code: code, Message: message})
	return map[string]any{"error": message}
}

func connIP(s socketio.Conn) string {
	if ctx, ok := s.Context().(*ConnCtx); ok {
		return ctx.IP
	}
	return clientIP(s)
}

// clientIP prefers the first X-Forwarded-For hop, then the peer address.
func clientIP(s socketio.Conn) string {
	if fwd := s.RemoteHeader().Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	addr := s.RemoteAddr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
