package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stwalsh4118/playcast/internal/db"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain error", errors.New("boom"), KindUnknown},
		{"not found", NotFoundf("video %d", 7), KindNotFound},
		{"unauthorized", Unauthorizedf("device %d not owned", 3), KindUnauthorized},
		{"conflict", Conflictf("already a member"), KindConflict},
		{"invalid input", InvalidInputf("position must be >= 1"), KindInvalidInput},
		{"no devices is invalid input", ErrNoDevices, KindInvalidInput},
		{"wrapped twice", fmt.Errorf("failed to add: %w", fmt.Errorf("transaction error: %w", NotFoundf("x"))), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNoDevicesMatchesBothSentinels(t *testing.T) {
	err := fmt.Errorf("failed to register video: %w", ErrNoDevices)

	assert.True(t, errors.Is(err, ErrNoDevices))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFromStorage(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, FromStorage(nil))
	})

	t.Run("duplicate becomes conflict", func(t *testing.T) {
		err := FromStorage(fmt.Errorf("failed to create: %w", db.ErrDuplicate))
		assert.Equal(t, KindConflict, KindOf(err))
		assert.True(t, errors.Is(err, db.ErrDuplicate))
	})

	t.Run("gorm duplicated key becomes conflict", func(t *testing.T) {
		err := FromStorage(gorm.ErrDuplicatedKey)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("record not found becomes not found", func(t *testing.T) {
		err := FromStorage(gorm.ErrRecordNotFound)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("anything else is a storage failure", func(t *testing.T) {
		err := FromStorage(errors.New("disk I/O error"))
		assert.Equal(t, KindStorageFailure, KindOf(err))
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		orig := Unauthorizedf("not yours")
		assert.Same(t, orig, FromStorage(orig))
	})
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "internal storage error", PublicMessage(FromStorage(errors.New("disk I/O error: /var/lib/x"))))
	assert.Equal(t, "internal storage error", PublicMessage(errors.New("raw")))
	assert.Equal(t, "video 9: not found", PublicMessage(NotFoundf("video %d", 9)))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unauthorized", KindUnauthorized.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "invalid_input", KindInvalidInput.String())
	assert.Equal(t, "storage_failure", KindStorageFailure.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
