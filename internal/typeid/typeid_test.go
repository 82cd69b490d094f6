package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UsesPrefix(t *testing.T) {
	id := NewNodeID()

	assert.True(t, strings.HasPrefix(id, PrefixNode+"_"))
	require.NoError(t, Validate(id, PrefixNode))
	assert.NotEqual(t, id, NewNodeID())
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(NewMapID(), PrefixNode))
	assert.Error(t, Validate("not an id", PrefixMap))
	assert.NoError(t, Validate(NewMapID(), PrefixMap))
}
