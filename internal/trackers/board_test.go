package trackers

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func boardNotification(t *testing.T, roundID, startSlot, endSlot, epochID uint64) json.RawMessage {
	t.Helper()
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:8], roundID)
	binary.LittleEndian.PutUint64(buf[8:16], startSlot)
	binary.LittleEndian.PutUint64(buf[16:24], endSlot)
	binary.LittleEndian.PutUint64(buf[24:32], epochID)

	encoded := base64.StdEncoding.EncodeToString(buf)
	raw, err := json.Marshal(map[string]interface{}{
		"value": map[string]interface{}{
			"data": [2]string{encoded, "base64"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func newTestBoardTracker() *BoardTracker {
	return &BoardTracker{}
}

func TestBoardTracker_GetBoardNilBeforeFirstNotification(t *testing.T) {
	tr := newTestBoardTracker()
	assert.Nil(t, tr.GetBoard())
	assert.Equal(t, uint64(0), tr.GetRoundID())
}

func TestBoardTracker_CachesDecodedBoard(t *testing.T) {
	tr := newTestBoardTracker()
	tr.onNotification(boardNotification(t, 5, 100, 200, 1))

	board := tr.GetBoard()
	assert.NotNil(t, board)
	assert.Equal(t, uint64(5), board.RoundID)
	assert.Equal(t, uint64(200), board.EndSlot)
	assert.Equal(t, uint64(5), tr.GetRoundID())
}

func TestBoardTracker_CheckNewRound_EdgeTriggeredOncePerTransition(t *testing.T) {
	tr := newTestBoardTracker()
	tr.onNotification(boardNotification(t, 5, 100, 200, 1))

	id, ok := tr.CheckNewRound()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), id)

	// Same round again: no further edge.
	_, ok = tr.CheckNewRound()
	assert.False(t, ok)

	// A later notification for the same round must not re-trigger.
	tr.onNotification(boardNotification(t, 5, 100, 200, 1))
	_, ok = tr.CheckNewRound()
	assert.False(t, ok)

	// New round id re-arms the edge.
	tr.onNotification(boardNotification(t, 6, 200, 300, 1))
	id, ok = tr.CheckNewRound()
	assert.True(t, ok)
	assert.Equal(t, uint64(6), id)
}

func TestBoardTracker_IgnoresMalformedNotification(t *testing.T) {
	tr := newTestBoardTracker()
	tr.onNotification(json.RawMessage(`not json`))
	assert.Nil(t, tr.GetBoard())
}
