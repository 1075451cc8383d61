package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cashwallet/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseWorkflowID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil UUID parses and reports IsNil", func(t *testing.T) {
		sid, err := ParseSessionID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, sid.IsNil())
	})

	t.Run("round trips through String", func(t *testing.T) {
		wf := NewWorkflowID()
		parsed, err := ParseWorkflowID(wf.String())
		require.NoError(t, err)
		assert.Equal(t, wf, parsed)
		assert.False(t, parsed.IsNil())
	})
}

func TestParseBirthDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accepts calendar date", func(t *testing.T) {
		d, err := ParseBirthDate(" 1990-04-12 ", now)
		require.NoError(t, err)
		assert.Equal(t, 1990, d.Year())
		assert.Equal(t, time.April, d.Month())
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		_, err := ParseBirthDate("12/04/1990", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects future dates", func(t *testing.T) {
		_, err := ParseBirthDate("2027-01-01", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
