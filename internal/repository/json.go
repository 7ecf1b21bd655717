package repository

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// mustJSON encodes the column payload for a JSONB field. The inputs are
// in-memory domain values, so encoding cannot fail in practice.
func mustJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}

	return datatypes.JSON(raw)
}
