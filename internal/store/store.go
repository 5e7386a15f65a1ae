package store

import (
	"github.com/jinzhu/gorm"
	_ "github.com/go-sql-driver/mysql"
	"github.com/klaytn/boardrush/internal/chainlog"
	"github.com/pkg/errors"
)

var storeLogger = chainlog.NewModuleLogger("store")

// Store wraps the analytics sink's gorm connection.
type Store struct {
	db *gorm.DB
}

// Open dials MySQL at dsn and runs auto-migration for every table this repo
// writes.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open analytics sink")
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&RoundRow{}, &DeploymentRow{}, &TreasurySnapshotRow{},
		&MinerSnapshotRow{}, &RawTransactionRow{}, &PartialRoundRow{},
	).Error
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// RoundExists reports whether roundID has already been finalized, making
// finalization a no-op on re-run (spec.md §4.6's "a round row is written at
// most once" invariant).
func (s *Store) RoundExists(roundID uint64) (bool, error) {
	var count int
	err := s.db.Model(&RoundRow{}).Where("round_id = ?", roundID).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check round existence")
	}
	return count > 0, nil
}

// SaveFinalizedRound persists one round's finalization atomically: one
// RoundRow, one TreasurySnapshotRow, N DeploymentRows, M MinerSnapshotRows
// (spec.md §4.6 step 5).
func (s *Store) SaveFinalizedRound(round RoundRow, treasury TreasurySnapshotRow, deployments []DeploymentRow, miners []MinerSnapshotRow) error {
	exists, err := s.RoundExists(round.RoundID)
	if err != nil {
		return err
	}
	if exists {
		storeLogger.Debug("round already finalized, skipping re-write", "round_id", round.RoundID)
		return nil
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "begin finalize transaction")
	}
	if err := tx.Create(&round).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "insert round row")
	}
	for i := range deployments {
		if err := tx.Create(&deployments[i]).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert deployment row")
		}
	}
	if err := tx.Create(&treasury).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "insert treasury snapshot")
	}
	for i := range miners {
		if err := tx.Create(&miners[i]).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert miner snapshot")
		}
	}
	return tx.Commit().Error
}

// SavePartialRound records a round finalization failure for later backfill.
func (s *Store) SavePartialRound(roundID uint64, reason string) error {
	row := PartialRoundRow{RoundID: roundID, Reason: reason}
	return errors.Wrap(
		s.db.Where(PartialRoundRow{RoundID: roundID}).Assign(row).FirstOrCreate(&PartialRoundRow{}).Error,
		"save partial round",
	)
}

// RecordTransactionPending writes a pending audit-log row before send
// (spec.md §4.5's idempotency rule).
func (s *Store) RecordTransactionPending(signature, kind, authority string) error {
	row := RawTransactionRow{Signature: signature, Kind: kind, Status: "pending", Authority: authority}
	return errors.Wrap(s.db.Create(&row).Error, "record pending transaction")
}

// UpdateTransactionStatus updates a previously-recorded audit row once the
// pipeline resolves it.
func (s *Store) UpdateTransactionStatus(signature, status string) error {
	err := s.db.Model(&RawTransactionRow{}).Where("signature = ?", signature).Update("status", status).Error
	return errors.Wrap(err, "update transaction status")
}
