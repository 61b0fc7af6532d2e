package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermitType(t *testing.T) {
	got, err := ParsePermitType("medicine")
	require.NoError(t, err)
	assert.Equal(t, PermitMedicine, got)

	got, err = ParsePermitType("device")
	require.NoError(t, err)
	assert.Equal(t, PermitDevice, got)

	got, err = ParsePermitType("medical_device")
	require.NoError(t, err)
	assert.Equal(t, PermitDevice, got)

	_, err = ParsePermitType("food")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown permit type")
}
