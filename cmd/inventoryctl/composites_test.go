package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVirtualRecipientPrefersExplicit(t *testing.T) {
	got, err := resolveVirtualRecipient("some_chest", "overworld", 2, "accountA")
	require.NoError(t, err)
	assert.Equal(t, "some_chest", got)
}

func TestResolveVirtualRecipientDimension(t *testing.T) {
	got, err := resolveVirtualRecipient("", "nether", -1, "accountA")
	require.NoError(t, err)
	assert.Equal(t, "nether", got)
}

func TestResolveVirtualRecipientUnknownDimension(t *testing.T) {
	_, err := resolveVirtualRecipient("", "moon", -1, "accountA")
	require.Error(t, err)
}

func TestResolveVirtualRecipientBriefcase(t *testing.T) {
	got, err := resolveVirtualRecipient("", "", 3, "accountA")
	require.NoError(t, err)
	assert.Equal(t, "accountA_b3", got)
}

func TestResolveVirtualRecipientRequiresOne(t *testing.T) {
	_, err := resolveVirtualRecipient("", "", -1, "accountA")
	require.Error(t, err)
}
