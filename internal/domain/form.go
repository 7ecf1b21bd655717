package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldDropdown, FieldCheckbox, FieldFile, FieldNumber, FieldEmail:
		return true
	}

	return false
}

type FormField struct {
	FieldID  string    `json:"field_id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
	Order    int       `json:"order"`
}

// FileMeta is what a file answer stores instead of raw bytes.
type FileMeta struct {
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
}

// FieldValue is the validated answer for one form field, tagged by the
// declared field type so readers never have to guess the shape.
type FieldValue struct {
	Type       FieldType `json:"type"`
	Text       string    `json:"text,omitempty"`
	Number     *float64  `json:"number,omitempty"`
	Checked    *bool     `json:"checked,omitempty"`
	Selections []string  `json:"selections,omitempty"`
	File       *FileMeta `json:"file,omitempty"`
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateResponses checks raw answers against the form field-by-field and
// returns the normalized response map. Every violation is collected; a
// non-empty violation list means the whole submission must be rejected.
func ValidateResponses(form []FormField, raw map[string]any, files map[string]FileMeta) (map[string]FieldValue, []string) {
	normalized := make(map[string]FieldValue, len(form))
	var violations []string

	for _, field := range form {
		if field.FieldID == "" {
			continue
		}

		value, problem := validateField(field, raw[field.FieldID], files)
		if problem != "" {
			violations = append(violations, problem)
			continue
		}
		normalized[field.FieldID] = value
	}

	if len(violations) > 0 {
		return nil, violations
	}

	return normalized, nil
}

func validateField(field FormField, rawValue any, files map[string]FileMeta) (FieldValue, string) {
	switch field.Type {
	case FieldFile:
		meta, uploaded := files[field.FieldID]
		if field.Required && !uploaded {
			return FieldValue{}, fmt.Sprintf("field is required: %s", field.Label)
		}
		value := FieldValue{Type: FieldFile}
		if uploaded {
			m := meta
			value.File = &m
		}
		return value, ""

	case FieldCheckbox:
		selected := normalizeCheckboxValues(rawValue)
		if len(field.Options) > 0 {
			for _, choice := range selected {
				if !contains(field.Options, choice) {
					return FieldValue{}, fmt.Sprintf("invalid checkbox option for field: %s", field.Label)
				}
			}
			if field.Required && len(selected) == 0 {
				return FieldValue{}, fmt.Sprintf("field is required: %s", field.Label)
			}
			return FieldValue{Type: FieldCheckbox, Selections: selected}, ""
		}

		// Without declared options a checkbox is a plain boolean.
		checked := len(selected) > 0
		if field.Required && !checked {
			return FieldValue{}, fmt.Sprintf("field is required: %s", field.Label)
		}
		return FieldValue{Type: FieldCheckbox, Checked: &checked}, ""
	}

	text := strings.TrimSpace(stringify(rawValue))

	if field.Required && text == "" {
		return FieldValue{}, fmt.Sprintf("field is required: %s", field.Label)
	}
	if text == "" {
		return FieldValue{Type: field.Type}, ""
	}

	switch field.Type {
	case FieldDropdown:
		if len(field.Options) > 0 && !contains(field.Options, text) {
			return FieldValue{}, fmt.Sprintf("invalid dropdown option for field: %s", field.Label)
		}
		return FieldValue{Type: FieldDropdown, Text: text}, ""

	case FieldNumber:
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return FieldValue{}, fmt.Sprintf("invalid numeric value for field: %s", field.Label)
		}
		return FieldValue{Type: FieldNumber, Number: &parsed}, ""

	case FieldEmail:
		if !emailShape.MatchString(text) {
			return FieldValue{}, fmt.Sprintf("invalid email value for field: %s", field.Label)
		}
		return FieldValue{Type: FieldEmail, Text: strings.ToLower(text)}, ""
	}

	return FieldValue{Type: field.Type, Text: text}, ""
}

// normalizeCheckboxValues accepts the shapes browsers send for checkbox
// groups: arrays, comma-separated strings, single strings and bare booleans.
func normalizeCheckboxValues(rawValue any) []string {
	switch v := rawValue.(type) {
	case []any:
		var out []string
		for _, item := range v {
			s := strings.TrimSpace(stringify(item))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		var out []string
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if strings.Contains(trimmed, ",") {
			var out []string
			for _, part := range strings.Split(trimmed, ",") {
				if s := strings.TrimSpace(part); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
		return []string{trimmed}
	case bool:
		if v {
			return []string{"true"}
		}
		return nil
	case float64:
		if v == 1 {
			return []string{"true"}
		}
		return nil
	}

	return nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}

	return false
}
