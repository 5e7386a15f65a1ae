package trackers

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func roundNotification(t *testing.T, roundID uint64) json.RawMessage {
	t.Helper()
	buf := make([]byte, 600) // comfortably over roundLen; only ID (offset 0) matters here
	binary.LittleEndian.PutUint64(buf[0:8], roundID)

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

func TestRoundTracker_GetRoundNilBeforeFirstNotification(t *testing.T) {
	tr := &RoundTracker{}
	assert.Nil(t, tr.GetRound())
}

func TestRoundTracker_CachesDecodedRound(t *testing.T) {
	tr := &RoundTracker{}
	tr.onNotification(roundNotification(t, 9))

	round := tr.GetRound()
	assert.NotNil(t, round)
	assert.Equal(t, uint64(9), round.ID)
}

func TestRoundTracker_IgnoresMalformedNotification(t *testing.T) {
	tr := &RoundTracker{}
	tr.onNotification(json.RawMessage(`not json`))
	assert.Nil(t, tr.GetRound())
}
