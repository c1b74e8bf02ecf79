package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// ErrScanValueNotBytes indicates the database value is not JSON text.
var ErrScanValueNotBytes = errors.New("valueobject: metadata scan value is not []byte")

// Metadata is a flat string map stored as a JSON object column (jsonb).
type Metadata map[string]string

// Value implements driver.Valuer. A nil map is stored as {}.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(m))
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		// pgx may hand over decoded jsonb
		out := make(Metadata, len(v))
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		*m = out
		return nil
	default:
		return ErrScanValueNotBytes
	}

	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Get returns the value for key or "".
func (m Metadata) Get(key string) string {
	return m[key]
}

// With returns a copy of m with key set.
func (m Metadata) With(key, value string) Metadata {
	out := make(Metadata, len(m)+1)
	maps.Copy(out, m)
	out[key] = value
	return out
}
