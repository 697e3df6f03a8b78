package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRegisterPayload(t *testing.T) {
	base := ApplicationRecord{
		Language: LanguageEnglish,
		Phone:    "9876543210",
		FullName: "Asha Rao",
		Email:    "a@x.com",
		Area:     "Pune",
	}

	t.Run("carwash carries expertise only", func(t *testing.T) {
		record := base
		record.Category = CategoryCarwash
		record.Details = CarwashDetails{Expertise: "foam wash"}

		p := record.ToRegisterPayload()
		assert.Equal(t, "foam wash", p.Expertise)
		assert.Empty(t, p.Vehicle)
		assert.Empty(t, p.Experience)
	})

	t.Run("pickdrop defaults vehicle to bike", func(t *testing.T) {
		record := base
		record.Category = CategoryPickDrop
		record.Details = PickDropDetails{}

		p := record.ToRegisterPayload()
		assert.Equal(t, "bike", p.Vehicle)
		assert.Empty(t, p.Expertise)
	})

	t.Run("driver carries experience", func(t *testing.T) {
		record := base
		record.Category = CategoryDriver
		record.Details = DriverDetails{ExperienceYears: "5"}

		p := record.ToRegisterPayload()
		assert.Equal(t, "5", p.Experience)
	})

	t.Run("document_url serializes as explicit null", func(t *testing.T) {
		record := base
		record.Category = CategoryCarwash
		record.Details = CarwashDetails{Expertise: "foam wash"}

		data, err := json.Marshal(record.ToRegisterPayload())
		require.NoError(t, err)

		var wire map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &wire))
		url, present := wire["document_url"]
		assert.True(t, present)
		assert.Nil(t, url)
	})
}

func TestParseCategory(t *testing.T) {
	for _, valid := range []string{"carwash", "pickdrop", "driver"} {
		_, err := ParseCategory(valid)
		assert.NoError(t, err)
	}
	_, err := ParseCategory("plumber")
	assert.Error(t, err)
	_, err = ParseCategory("")
	assert.Error(t, err)
}

func TestParseVehicle(t *testing.T) {
	for _, valid := range []string{"bike", "scooter", "car"} {
		_, err := ParseVehicle(valid)
		assert.NoError(t, err)
	}
	_, err := ParseVehicle("truck")
	assert.Error(t, err)
}
