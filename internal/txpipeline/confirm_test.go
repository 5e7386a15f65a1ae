package txpipeline

import (
	"testing"

	"github.com/klaytn/boardrush/internal/rpcclient"
	"github.com/stretchr/testify/assert"
)

func instructionError(code float64) interface{} {
	return map[string]interface{}{
		"InstructionError": []interface{}{
			float64(0),
			map[string]interface{}{"Custom": code},
		},
	}
}

func TestClassify_NilStatusIsExpiredDropped(t *testing.T) {
	assert.Equal(t, ClassExpiredDropped, classify(nil))
}

func TestClassify_UnconfirmedIsExpiredDropped(t *testing.T) {
	assert.Equal(t, ClassExpiredDropped, classify(&rpcclient.SignatureStatus{}))
}

func TestClassify_ErrFieldIsLandedReverted(t *testing.T) {
	status := &rpcclient.SignatureStatus{Err: instructionError(1), ConfirmationStatus: "confirmed"}
	assert.Equal(t, ClassLandedReverted, classify(status))
}

func TestClassify_ConfirmedWithNoErrIsConfirmed(t *testing.T) {
	status := &rpcclient.SignatureStatus{ConfirmationStatus: "confirmed"}
	assert.Equal(t, ClassConfirmed, classify(status))
}

func TestProgramErrorCode_ExtractsCustomCode(t *testing.T) {
	status := &rpcclient.SignatureStatus{Err: instructionError(ErrCodeNoDeployments)}
	code, ok := programErrorCode(status)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeNoDeployments, code)
}

func TestProgramErrorCode_NoErrReturnsFalse(t *testing.T) {
	_, ok := programErrorCode(&rpcclient.SignatureStatus{})
	assert.False(t, ok)
}

func TestConfirmAndReport_EmptyBurstIsSkipped(t *testing.T) {
	report := ConfirmAndReport(nil, "auth", nil, nil)
	assert.Equal(t, OutcomeSkipped, report.Outcome)
}
