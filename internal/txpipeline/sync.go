package txpipeline

import (
	"context"
	"time"

	"github.com/klaytn/boardrush/internal/chainenc"
	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/pkg/errors"
)

// SyncConfirmTimeout bounds blocking confirmation for checkpoint/claim
// (spec.md §4.3, §5).
const SyncConfirmTimeout = 60 * time.Second

// SyncPollInterval is how often SendAndConfirm re-polls signature status
// while waiting.
const SyncPollInterval = 500 * time.Millisecond

// ErrNotConfirmed is returned when SyncConfirmTimeout elapses with no
// terminal signature status.
var ErrNotConfirmed = errors.New("txpipeline: transaction not confirmed before timeout")

// SendAndConfirm submits one transaction and blocks until it confirms,
// reverts, or SyncConfirmTimeout elapses -- used for checkpoint and claim
// (spec.md §4.3's "Synchronous send-and-confirm").
func SendAndConfirm(ctx context.Context, client *rpcclient.Client, submit Submitter, tx *chainenc.Transaction) (signature string, reverted bool, errCode int, err error) {
	sig, err := submit.Submit(ctx, tx)
	if err != nil {
		return "", false, 0, errors.Wrap(err, "submit")
	}

	ctx, cancel := context.WithTimeout(ctx, SyncConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(SyncPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return sig, false, 0, ErrNotConfirmed
		case <-ticker.C:
			statuses, err := client.GetSignatureStatuses(ctx, []string{sig})
			if err != nil {
				pipelineLogger.Debug("getSignatureStatuses poll failed during sync confirm", "err", err)
				continue
			}
			if len(statuses) == 0 || statuses[0] == nil {
				continue
			}
			status := statuses[0]
			if status.ConfirmationStatus == "" && status.Err == nil {
				continue // not yet seen
			}
			if status.Err != nil {
				code, _ := programErrorCode(status)
				return sig, true, code, nil
			}
			return sig, false, 0, nil
		}
	}
}
