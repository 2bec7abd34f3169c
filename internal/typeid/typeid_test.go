package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCarriesPrefix(t *testing.T) {
	id := NewLayoutID()
	assert.True(t, strings.HasPrefix(id, "layout_"))
	assert.NoError(t, Validate(id, PrefixLayout))
	assert.NotEqual(t, id, NewLayoutID())
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(NewSnapshotID(), PrefixLayout))
	assert.Error(t, Validate("not an id", PrefixLayout))
}
