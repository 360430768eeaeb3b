package gateway

import (
	"sync"
	"time"

	"github.com/curbz/planeguess/internal/config"
	"github.com/curbz/planeguess/internal/metrics"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Viewer is one websocket connection. It is a hub sink: snapshots land in a
// single latest-wins slot so a slow connection only ever skips frames.
type Viewer struct {
	id      string
	enc     protocol.Encoding
	acks    bool
	conn    *websocket.Conn
	cfg     config.ViewerConfig
	limiter *rate.Limiter
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	latest    chan []byte
	replies   chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newViewer(id string, conn *websocket.Conn, enc protocol.Encoding, acks bool, cfg config.ViewerConfig, log logrus.FieldLogger, m *metrics.Metrics) *Viewer {
	ackBuffer := cfg.AckBuffer
	if ackBuffer <= 0 {
		ackBuffer = 1
	}
	return &Viewer{
		id:      id,
		enc:     enc,
		acks:    acks,
		conn:    conn,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.CommandsPerSecond), cfg.Burst),
		log:     log.WithField("viewer", id),
		metrics: m,
		latest:  make(chan []byte, 1),
		replies: make(chan []byte, ackBuffer),
		done:    make(chan struct{}),
	}
}

func (v *Viewer) ID() string                  { return v.id }
func (v *Viewer) Encoding() protocol.Encoding { return v.enc }

// Deliver replaces any snapshot still waiting to be written. It only fails
// once the viewer is closed.
func (v *Viewer) Deliver(frame []byte) bool {
	select {
	case <-v.done:
		return false
	default:
	}
	for {
		select {
		case v.latest <- frame:
			return true
		default:
		}
		select {
		case <-v.latest:
			v.metrics.IncrementDeliveriesDropped()
		default:
		}
	}
}

// reply queues an acknowledgement for this viewer only. Viewers that did not
// ask for acks get nothing; a full queue drops the ack.
func (v *Viewer) reply(msg any) {
	if !v.acks {
		return
	}
	b, err := protocol.Encode(v.enc, msg)
	if err != nil {
		v.log.Errorf("encode ack: %v", err)
		return
	}
	select {
	case v.replies <- b:
	case <-v.done:
	default:
		v.log.Debug("ack queue full, dropping")
	}
}

func (v *Viewer) replyError(code string, err error) {
	v.reply(protocol.NewError(code, err.Error()))
}

func (v *Viewer) close() {
	v.closeOnce.Do(func() {
		close(v.done)
	})
}

func (v *Viewer) messageType() int {
	if v.enc == protocol.MsgPack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// writePump owns every write to the connection.
func (v *Viewer) writePump() {
	ticker := time.NewTicker(v.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	write := func(mt int, b []byte) bool {
		_ = v.conn.SetWriteDeadline(time.Now().Add(v.cfg.WriteWait))
		if err := v.conn.WriteMessage(mt, b); err != nil {
			v.log.Debugf("write: %v", err)
			v.close()
			return false
		}
		return true
	}

	for {
		select {
		case frame := <-v.latest:
			if !write(v.messageType(), frame) {
				return
			}
		case ack := <-v.replies:
			if !write(v.messageType(), ack) {
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		case <-v.done:
			_ = v.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(v.cfg.WriteWait))
			return
		}
	}
}
