package trackers

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/klaytn/boardrush/internal/rpcclient"
)

var boardLogger = chainlog.NewModuleLogger("trackers.board")

// BoardTracker subscribes to the board account and edge-triggers new-round
// detection via CheckNewRound (spec.md §4.1).
type BoardTracker struct {
	mu           sync.RWMutex
	board        *chainenc.Board
	haveSeen     bool
	newRoundSeen bool // true once the current board.RoundID has been consumed by CheckNewRound

	sub *rpcclient.Subscription
}

type accountSubResult struct {
	Value struct {
		Data [2]string `json:"data"`
	} `json:"value"`
}

// NewBoardTracker subscribes to accountSubscribe for boardAddr.
func NewBoardTracker(wsEndpoints []string, boardAddr string) *BoardTracker {
	t := &BoardTracker{}
	t.sub = rpcclient.NewSubscription(wsEndpoints, "accountSubscribe", boardAddr, map[string]string{"encoding": "base64"})
	go t.sub.Run(t.onNotification)
	return t
}

func (t *BoardTracker) onNotification(raw json.RawMessage) {
	var res accountSubResult
	if err := json.Unmarshal(raw, &res); err != nil {
		boardLogger.Debug("ignoring malformed board notification", "err", err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(res.Value.Data[0])
	if err != nil {
		boardLogger.Warn("board account decode error, retaining previous cache value", "err", err)
		return
	}
	board, err := chainenc.DecodeBoard(data)
	if err != nil {
		boardLogger.Warn("board account decode error, retaining previous cache value", "err", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.haveSeen || board.RoundID != t.board.RoundID {
		t.newRoundSeen = false
	}
	t.board = board
	t.haveSeen = true
}

// GetBoard returns the cached Board, or nil before the first successful
// decode.
func (t *BoardTracker) GetBoard() *chainenc.Board {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.haveSeen {
		return nil
	}
	cp := *t.board
	return &cp
}

// GetRoundID returns the cached board's round id, or 0 before the first
// successful decode.
func (t *BoardTracker) GetRoundID() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.haveSeen {
		return 0
	}
	return t.board.RoundID
}

// CheckNewRound returns the new round id exactly once per transition
// (edge-triggered), per spec.md §4.1.
func (t *BoardTracker) CheckNewRound() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.haveSeen || t.newRoundSeen {
		return 0, false
	}
	t.newRoundSeen = true
	return t.board.RoundID, true
}

// Close tears down the underlying subscription.
func (t *BoardTracker) Close() { t.sub.Close() }
