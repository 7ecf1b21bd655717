package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResponses(t *testing.T) {
	form := []FormField{
		{FieldID: "name", Label: "Full name", Type: FieldText, Required: true},
		{FieldID: "bio", Label: "Bio", Type: FieldTextarea},
		{FieldID: "size", Label: "T-shirt size", Type: FieldDropdown, Options: []string{"S", "M", "L"}, Required: true},
		{FieldID: "age", Label: "Age", Type: FieldNumber, Required: true},
		{FieldID: "email", Label: "Contact email", Type: FieldEmail, Required: true},
		{FieldID: "days", Label: "Days attending", Type: FieldCheckbox, Options: []string{"day1", "day2"}},
		{FieldID: "consent", Label: "Consent", Type: FieldCheckbox, Required: true},
	}

	t.Run("valid submission normalizes every answer", func(t *testing.T) {
		raw := map[string]any{
			"name":    "  Asha Rao ",
			"size":    "M",
			"age":     "21",
			"email":   "Asha@Example.COM",
			"days":    []any{"day1", "day2"},
			"consent": true,
		}

		normalized, violations := ValidateResponses(form, raw, nil)
		require.Empty(t, violations)

		assert.Equal(t, "Asha Rao", normalized["name"].Text)
		assert.Equal(t, "M", normalized["size"].Text)
		require.NotNil(t, normalized["age"].Number)
		assert.Equal(t, 21.0, *normalized["age"].Number)
		assert.Equal(t, "asha@example.com", normalized["email"].Text)
		assert.Equal(t, []string{"day1", "day2"}, normalized["days"].Selections)
		require.NotNil(t, normalized["consent"].Checked)
		assert.True(t, *normalized["consent"].Checked)

		// Optional empty textarea still gets a typed slot.
		assert.Equal(t, FieldTextarea, normalized["bio"].Type)
	})

	t.Run("all violations are reported together", func(t *testing.T) {
		raw := map[string]any{
			"size":    "XXL",
			"age":     "twenty",
			"email":   "not-an-email",
			"days":    "day3",
			"consent": true,
		}

		normalized, violations := ValidateResponses(form, raw, nil)
		assert.Nil(t, normalized)
		require.Len(t, violations, 5)
		assert.Contains(t, violations[0], "Full name")
		assert.Contains(t, violations[1], "T-shirt size")
		assert.Contains(t, violations[2], "Age")
		assert.Contains(t, violations[3], "Contact email")
		assert.Contains(t, violations[4], "Days attending")
	})

	t.Run("checkbox accepts comma separated strings", func(t *testing.T) {
		raw := map[string]any{
			"name":    "Asha",
			"size":    "S",
			"age":     42.0,
			"email":   "a@b.co",
			"days":    "day1, day2",
			"consent": "true",
		}

		normalized, violations := ValidateResponses(form, raw, nil)
		require.Empty(t, violations)
		assert.Equal(t, []string{"day1", "day2"}, normalized["days"].Selections)
	})

	t.Run("required file field needs an upload", func(t *testing.T) {
		fileForm := []FormField{{FieldID: "resume", Label: "Resume", Type: FieldFile, Required: true}}

		_, violations := ValidateResponses(fileForm, nil, nil)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "Resume")

		files := map[string]FileMeta{
			"resume": {OriginalName: "cv.pdf", Path: "registrations/abc.pdf", MimeType: "application/pdf", Size: 1024},
		}
		normalized, violations := ValidateResponses(fileForm, nil, files)
		require.Empty(t, violations)
		require.NotNil(t, normalized["resume"].File)
		assert.Equal(t, "cv.pdf", normalized["resume"].File.OriginalName)
	})

	t.Run("consent violation also fails required checkbox", func(t *testing.T) {
		raw := map[string]any{
			"name":  "Asha",
			"size":  "S",
			"age":   "20",
			"email": "a@b.co",
		}

		_, violations := ValidateResponses(form, raw, nil)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "Consent")
	})

	t.Run("fields without an id are skipped", func(t *testing.T) {
		broken := []FormField{{Label: "No id", Type: FieldText, Required: true}}

		normalized, violations := ValidateResponses(broken, nil, nil)
		assert.Empty(t, violations)
		assert.Empty(t, normalized)
	})
}
