package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	valid := []string{"project_root", "data.input", "models.pixtral", "a.b.c", "key2"}
	for _, key := range valid {
		assert.NoError(t, ValidateKey(key), key)
	}

	invalid := []string{"", "Data.Input", "data..input", ".input", "data.", "2data", "data-input", "data input"}
	for _, key := range invalid {
		assert.Error(t, ValidateKey(key), "%q should be rejected", key)
	}
}

func TestStandardKeysAreValid(t *testing.T) {
	keys := StandardKeys()
	assert.Len(t, keys, 13)
	for _, key := range keys {
		assert.NoError(t, ValidateKey(key), key)
	}
}

func TestGroup(t *testing.T) {
	assert.Equal(t, "", Group("project_root"))
	assert.Equal(t, "data", Group("data.input"))
	assert.Equal(t, "a.b", Group("a.b.c"))
}
