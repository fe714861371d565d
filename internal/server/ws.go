// internal/server/ws.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/bot"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/models"
	"github.com/sirupsen/logrus"
)

const readLimit = 1 << 16

// handleWebSocket seats the caller and relays messages until the socket
// closes. Query: player (uuid, generated if absent), name, bot. A bot socket
// is seated with a server-side random decider and only observes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	playerID := uuid.New()
	if p := q.Get("player"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil || id == uuid.Nil {
			writeError(w, fmt.Errorf("%w: player %q", engine.ErrInvalidValue, p))
			return
		}
		playerID = id
	}
	name := q.Get("name")
	if name == "" {
		name = "Player"
	}
	isBot := parseBool(q.Get("bot"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.OriginPatterns})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	log := s.log.WithFields(logrus.Fields{"table": tbl.ID, "player": playerID})
	ctx := r.Context()
	h := s.hubFor(tbl)
	c := newClient(playerID)
	h.register(c)

	var decider game.Decider
	if isBot {
		decider = bot.NewRandom(uint64(time.Now().UnixNano()))
	}
	if err := tbl.Seat(models.NewPlayer(playerID, name, isBot), decider); err != nil {
		h.unregister(c)
		log.WithError(err).Info("seat refused")
		if msg, encErr := encode(MsgError, ErrorPayload{Code: game.ErrorCode(err), Message: err.Error()}); encErr == nil {
			wctx, cancel := context.WithTimeout(ctx, s.WriteTimeout)
			conn.Write(wctx, websocket.MessageText, msg)
			cancel()
		}
		conn.Close(websocket.StatusPolicyViolation, "seat refused")
		return
	}
	log.Info("client connected")

	writerDone := make(chan struct{})
	go s.writePump(ctx, conn, c, writerDone)

	s.reply(c, MsgWelcome, WelcomePayload{TableID: tbl.ID.String(), PlayerID: playerID.String()})
	s.reply(c, MsgSnapshot, tbl.Snapshot(playerID))

	s.readPump(ctx, conn, tbl, c)

	if h.unregister(c) {
		if err := tbl.SetConnected(playerID, false); err != nil {
			log.WithError(err).Debug("player left before disconnect")
		}
	}
	<-writerDone
	log.Info("client disconnected")
}

// writePump drains the client's queue onto the socket. It closes the socket
// when the queue is closed, which also ends the read loop.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, c *client, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		wctx, cancel := context.WithTimeout(ctx, s.WriteTimeout)
		err := conn.Write(wctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			s.log.WithError(err).WithField("player", c.playerID).Debug("websocket write failed")
			conn.CloseNow()
			for range c.send {
			}
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, tbl *game.Table, c *client) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				s.log.WithError(err).WithField("player", c.playerID).Debug("websocket read ended")
			}
			return
		}
		s.handleMessage(tbl, c, data)
	}
}

// handleMessage applies one inbound envelope. Malformed input is answered
// with an error envelope and never reaches the table; table rejections
// arrive as the table's private rejection event.
func (s *Server) handleMessage(tbl *game.Table, c *client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.replyError(c, "", fmt.Errorf("%w: malformed envelope: %v", engine.ErrInvalidValue, err))
		return
	}

	switch env.Type {
	case MsgStartRound:
		if err := tbl.StartRound(); err != nil {
			s.replyError(c, env.Type, err)
		}
	case MsgSnapshot:
		s.reply(c, MsgSnapshot, tbl.Snapshot(c.playerID))
	default:
		kind, ok := decisionKinds[env.Type]
		if !ok {
			s.replyError(c, env.Type, fmt.Errorf("%w: unknown message type %q", engine.ErrInvalidValue, env.Type))
			return
		}
		dec, err := game.ParseDecision(kind, env.Payload)
		if err != nil {
			s.replyError(c, env.Type, err)
			return
		}
		tbl.SubmitDecision(c.playerID, dec)
	}
}

func (s *Server) reply(c *client, msgType string, payload interface{}) {
	msg, err := encode(msgType, payload)
	if err != nil {
		s.log.WithError(err).WithField("type", msgType).Error("encoding reply")
		return
	}
	if !c.enqueue(msg) {
		s.log.WithFields(logrus.Fields{"player": c.playerID, "type": msgType}).Warn("client queue full, reply dropped")
	}
}

func (s *Server) replyError(c *client, request string, err error) {
	s.reply(c, MsgError, ErrorPayload{Code: game.ErrorCode(err), Message: err.Error(), Request: request})
}
