package contract_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brev/contract"
)

func TestResolveCorrelationID_reuses_inbound_value(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc-123", contract.ResolveCorrelationID("abc-123"))
}

func TestResolveCorrelationID_generates_valid_id(t *testing.T) {
	t.Parallel()

	id := contract.ResolveCorrelationID("")
	require.NotEmpty(t, id)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestResolveCorrelationID_uniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 10000)
	for range 10000 {
		id := contract.ResolveCorrelationID("")
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
