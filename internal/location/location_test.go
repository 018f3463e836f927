package location

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/shared"
)

func TestParse(t *testing.T) {
	loc, err := Parse("service_center", 12)
	require.NoError(t, err)
	assert.Equal(t, Location{Kind: ServiceCenter, ID: 12}, loc)
	assert.Equal(t, "service_center/12", loc.String())

	_, err = Parse("depot", 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = Parse("plant", 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestZeroValueInvalid(t *testing.T) {
	var loc Location
	assert.False(t, loc.Valid())
	assert.True(t, loc.IsZero())
}

func TestJSONRoundTripUsesNames(t *testing.T) {
	raw, err := json.Marshal(Must(Plant, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"plant","id":3}`, string(raw))

	var decoded Location
	require.NoError(t, json.Unmarshal([]byte(`{"type":"warehouse","id":8}`), &decoded))
	assert.Equal(t, Must(Warehouse, 8), decoded)

	require.Error(t, json.Unmarshal([]byte(`{"type":"garage","id":8}`), &decoded))
}
