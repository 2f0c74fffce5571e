package businessflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBusinessErrorMatching(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound(MsgPhotoNotFound))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, IsNotFound(err))

	be, ok := AsBusinessError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, be.Code)
	assert.Equal(t, MsgPhotoNotFound, be.Message)
}

func TestBusinessErrorWrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := DependencyFailure(MsgMediaStoreUnavailable, cause)

	assert.Equal(t, "Photo storage is unavailable.: dial tcp: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDependencyFailure(err))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", resultLabel(nil))
	assert.Equal(t, "invalid_operation", resultLabel(InvalidOperation("x")))
	assert.Equal(t, "error", resultLabel(errors.New("boom")))
}

type stubWork struct {
	ok  bool
	err error
}

func (w stubWork) Add(...any) {}
func (w stubWork) Update(...any) {}
func (w stubWork) Remove(...any) {}
func (w stubWork) HasChanges() bool { return true }
func (w stubWork) Complete(context.Context) (bool, error) {
	return w.ok, w.err
}

func TestCompleteOrFail(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, completeOrFail(ctx, stubWork{ok: true}, "msg"))

	err := completeOrFail(ctx, stubWork{ok: false}, "Nothing saved.")
	assert.True(t, IsPersistenceFailure(err))
	assert.Equal(t, "Nothing saved.", err.Error())

	err = completeOrFail(ctx, stubWork{err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)}, "Duplicate.")
	assert.True(t, IsConflict(err))

	err = completeOrFail(ctx, stubWork{err: errors.New("connection refused")}, "Broken.")
	assert.True(t, IsPersistenceFailure(err))
}
