package ledger

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FeedState is the daemon's replication status as last reported over the
// event feed. A pointer to it is handed to every request handler; there is
// no process-global readiness flag.
type FeedState struct {
	caughtUp         atomic.Bool
	lastMessageIndex atomic.Int64
	lastBlockIndex   atomic.Int64
}

func (s *FeedState) CaughtUp() bool {
	return s.caughtUp.Load()
}

func (s *FeedState) LastMessageIndex() int64 {
	return s.lastMessageIndex.Load()
}

func (s *FeedState) LastBlockIndex() int64 {
	return s.lastBlockIndex.Load()
}

// Feed follows the ledger daemon's websocket event feed and keeps a
// FeedState current.
type Feed struct {
	url    string
	conn   *websocket.Conn
	state  *FeedState
	logger *zap.Logger
}

func NewFeed(url string, logger *zap.Logger) *Feed {
	return &Feed{
		url:    url,
		state:  &FeedState{},
		logger: logger,
	}
}

// State returns the feed's readiness value for injection into handlers.
func (f *Feed) State() *FeedState {
	return f.state
}

// Connect establishes the websocket connection. It does not start the
// listener.
func (f *Feed) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		f.logger.Error("failed to connect to ledger feed", zap.String("url", f.url), zap.Error(err))
		return err
	}
	f.conn = conn
	f.logger.Info("ledger feed connected", zap.String("url", f.url))
	return nil
}

// Listen consumes feed messages until the process exits, reconnecting
// indefinitely on read errors. Starting without an established connection is
// fine: the listener keeps dialing until the daemon comes up. While
// disconnected the state reports not caught up.
func (f *Feed) Listen() {
	for {
		if f.conn == nil {
			f.state.caughtUp.Store(false)
			if err := f.reconnect(); err != nil {
				f.logger.Warn("retrying ledger feed connect...", zap.Error(err))
				time.Sleep(3 * time.Second)
				continue
			}
			f.logger.Info("ledger feed connected")
		}

		_, msg, err := f.conn.ReadMessage()
		if err != nil {
			f.logger.Error("ledger feed read error", zap.Error(err))
			f.state.caughtUp.Store(false)
			f.conn.Close()
			f.conn = nil
			continue
		}

		var parsed feedMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			f.logger.Warn("failed to parse feed message", zap.Error(err))
			continue
		}
		f.state.caughtUp.Store(parsed.CaughtUp)
		if parsed.MessageIndex > 0 {
			f.state.lastMessageIndex.Store(parsed.MessageIndex)
		}
		if parsed.BlockIndex > 0 {
			f.state.lastBlockIndex.Store(parsed.BlockIndex)
		}
	}
}

func (f *Feed) reconnect() error {
	newConn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.conn = newConn
	return nil
}
