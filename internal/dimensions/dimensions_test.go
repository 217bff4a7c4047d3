package dimensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKnown(t *testing.T) {
	assert.True(t, Overworld.IsKnown())
	assert.True(t, Nether.IsKnown())
	assert.True(t, End.IsKnown())
	assert.False(t, Dimension("limbo").IsKnown())
}

func TestBriefcase(t *testing.T) {
	assert.Equal(t, "alice_b0", Briefcase("alice", 0))
	assert.Equal(t, "alice_b3", Briefcase("alice", 3))
}
