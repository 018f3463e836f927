package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientInventoryErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("approve: %w", &InsufficientInventoryError{ItemID: 3, SpareID: 5, Proposed: 12, Available: 10})

	require.ErrorIs(t, err, ErrInsufficientInventory)
	var typed *InsufficientInventoryError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, int64(10), typed.Available)
	assert.Contains(t, err.Error(), "proposed 12, available 10")
}

func TestQuantityExceedsApprovalErrorMatchesSentinel(t *testing.T) {
	err := &QuantityExceedsApprovalError{SpareID: 5, Received: 6, Approved: 4}
	require.ErrorIs(t, err, ErrQuantityExceedsApproval)
	require.NotErrorIs(t, err, ErrInsufficientInventory)
}

func TestPersistenceKeepsBothChains(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("insert movement", cause)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, cause)
	require.NoError(t, Persistence("noop", nil))
}

func TestPrincipalInRegion(t *testing.T) {
	p := Principal{UserID: 1, Role: RoleRSM, RegionIDs: []int64{4, 9}}
	assert.True(t, p.InRegion(9))
	assert.False(t, p.InRegion(2))
}

func TestOutcomeLabels(t *testing.T) {
	cases := map[string]error{
		"ok":                     nil,
		"insufficient_inventory": fmt.Errorf("tx: %w", &InsufficientInventoryError{}),
		"exceeds_approval":       &QuantityExceedsApprovalError{},
		"forbidden":              ErrUnauthenticated,
		"conflict":               fmt.Errorf("%w: request 1 is approved_by_rsm", ErrConflict),
		"invalid":                Validationf("bad"),
		"not_found":              NotFoundf("request %d", 1),
		"error":                  errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Outcome(err))
	}
}
