package core

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	extent := errors.Wrapf(ErrImageExtentNotSupported, "extent %dx%d", 0, 0)
	assert.True(t, IsRecoverable(extent))
	assert.False(t, IsFatal(extent))

	lost := errors.Wrap(ErrDeviceLost, "queue submit")
	assert.False(t, IsRecoverable(lost))
	assert.True(t, IsFatal(lost))

	assert.False(t, IsRecoverable(nil))
	assert.False(t, IsFatal(nil))
}
