package pause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ledgerguard/pkg/domain-errors"
)

func TestState(t *testing.T) {
	var s State
	assert.False(t, s.Paused())

	err := s.Unpause()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, "Pausable: not paused", err.Error())

	require.NoError(t, s.Pause())
	assert.True(t, s.Paused())

	err = s.Pause()
	require.Error(t, err)
	assert.Equal(t, "Pausable: paused", err.Error())

	require.NoError(t, s.Unpause())
	assert.False(t, s.Paused())
}
