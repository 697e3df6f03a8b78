package docrules

import (
	"os"
	"path/filepath"
	"testing"

	"provider-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table := Default()

	carwash := table.ForCategory(models.CategoryCarwash)
	require.Len(t, carwash, 2)
	assert.Equal(t, "aadhaar", carwash[0].Key)
	assert.Equal(t, "pan", carwash[1].Key)

	pickdrop := table.ForCategory(models.CategoryPickDrop)
	require.Len(t, pickdrop, 4)
	assert.Equal(t, "dl", pickdrop[2].Key)
	assert.False(t, pickdrop[3].Required, "rc is optional")
	assert.Equal(t, "Vehicle RC Book (Optional)", pickdrop[3].Label)

	driver := table.ForCategory(models.CategoryDriver)
	require.Len(t, driver, 4)
	assert.Equal(t, "RC Book (Optional)", driver[3].Label)
}

func TestForCategory_Unknown(t *testing.T) {
	assert.Empty(t, Default().ForCategory(models.Category("plumber")))
}

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docrules.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeRulesFile(t, `{
			"carwash": [
				{"key": "aadhaar", "label": "Aadhaar Card", "inputPlaceholder": "Enter Aadhaar Number", "required": true}
			]
		}`)

		table, err := Load(path)
		require.NoError(t, err)
		rules := table.ForCategory(models.CategoryCarwash)
		require.Len(t, rules, 1)
		assert.Equal(t, "aadhaar", rules[0].Key)
		assert.True(t, rules[0].Required)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("schema violation", func(t *testing.T) {
		path := writeRulesFile(t, `{"carwash": [{"label": "Aadhaar Card"}]}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid doc rules file")
	})

	t.Run("unknown category", func(t *testing.T) {
		path := writeRulesFile(t, `{
			"plumber": [
				{"key": "aadhaar", "label": "Aadhaar Card", "required": true}
			]
		}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown category")
	})

	t.Run("not json", func(t *testing.T) {
		path := writeRulesFile(t, `not json at all`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}
