package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"guildscore/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCode(t *testing.T) {
	base := ConfigInvalid("TREE_PATH is required")
	err := Wrap(base, "failed to load configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.Equal(t, "failed to load configuration: TREE_PATH is required", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrapf_PlainErrorIsInternal(t *testing.T) {
	err := Wrapf(stderrors.New("disk full"), "writing profile set %s", "abc")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Contains(t, err.Error(), "writing profile set abc")
}

func TestWrapf_DomainErrorKeepsItsCode(t *testing.T) {
	err := Wrapf(core.NewInvalidRecordError("traits.csv", 4, "height_m is negative"), "failed to read %s", "traits.csv")
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
	assert.Contains(t, err.Error(), "failed to read traits.csv")
}

func TestGetCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("scoring: %w", InvalidInput("empty guild"))
	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"malformed tree", core.NewMalformedTreeError("forest"), CodeMalformedTree},
		{"uncalibrated", core.NewUncalibratedMetricError("m1_faith_pd", ""), CodeUncalibratedMetric},
		{"stale", core.NewStaleProfileError("m1_faith_pd", "v1", "v2"), CodeUncalibratedMetric},
		{"invalid profile", core.NewInvalidProfileError("m1_faith_pd", "out of order"), CodeUncalibratedMetric},
		{"not found", core.NewNotFoundError("profile set", "x"), CodeNotFound},
		{"bad record", core.NewInvalidRecordError("traits", 3, "bad height"), CodeInvalidInput},
		{"other", stderrors.New("boom"), CodeInternalError},
		{"already coded", DatabaseError(stderrors.New("connection refused"), "failed to open database"), CodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromDomain(tt.err)
			assert.Equal(t, tt.code, GetCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Nil(t, FromDomain(nil))
}

func TestDatabaseError(t *testing.T) {
	cause := stderrors.New("timeout")
	err := DatabaseError(cause, "failed to list profile sets")
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to list profile sets: timeout", err.Error())

	missing := DatabaseError(core.NewNotFoundError("profile set", "x"), "failed to load profile set")
	assert.Equal(t, CodeNotFound, GetCode(missing))

	assert.Nil(t, DatabaseError(nil, "ignored"))
}
