package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/app"
	sctesting "github.com/servicehub/sparecrm/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	sctesting.EnsureTestMode()
	require.True(t, app.InTestMode())
	require.NotPanics(t, main)
}
