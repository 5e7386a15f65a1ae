package crank

import (
	"time"

	"github.com/go-redis/redis/v7"
	uuid "github.com/satori/go.uuid"
	"github.com/pkg/errors"
)

// auditTTL bounds how long an audit entry lingers in Redis, pending or
// resolved.
const auditTTL = 10 * time.Minute

// AuditLog is the crank's Redis-backed batch audit log. BeginBatch records a
// fresh batch id with status "pending" before the batch is built and sent;
// Resolve later overwrites that status with the batch's outcome. Only the
// status string is stored per batch id: no signature, deployer list or tip
// amount is recorded. The scheduler writes this log and does not read it
// back when deciding what to send. Grounded on datasync/chaindatafetcher's
// publish-then-record shape, repurposed from a Kafka publish to a readable
// Redis status row.
type AuditLog struct {
	client *redis.Client
}

// NewAuditLog wraps an existing Redis client.
func NewAuditLog(client *redis.Client) *AuditLog {
	return &AuditLog{client: client}
}

// BeginBatch records a new batch id with status "pending" before it is sent,
// returning the id used to key later status updates.
func (a *AuditLog) BeginBatch(jobCount int) (string, error) {
	id := uuid.NewV4().String()
	if err := a.client.Set(auditKey(id), "pending", auditTTL).Err(); err != nil {
		return "", errors.Wrap(err, "record pending batch")
	}
	return id, nil
}

// Resolve updates a batch's recorded status once its outcome is known.
func (a *AuditLog) Resolve(id, status string) error {
	return errors.Wrap(a.client.Set(auditKey(id), status, auditTTL).Err(), "resolve batch status")
}

// Status returns a previously-recorded batch's status, or "" if unknown
// (expired from Redis or never recorded).
func (a *AuditLog) Status(id string) (string, error) {
	status, err := a.client.Get(auditKey(id)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read batch status")
	}
	return status, nil
}

func auditKey(id string) string { return "boardrush:crank:batch:" + id }
