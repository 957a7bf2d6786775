package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigVersion(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	assert.Equal(t, ConfigVersion(a), ConfigVersion(b))
	assert.Len(t, ConfigVersion(a), 16)

	b.Edge.Attenuation = 2
	assert.NotEqual(t, ConfigVersion(a), ConfigVersion(b))
}
