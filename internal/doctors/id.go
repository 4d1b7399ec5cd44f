package doctors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numericID = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// ID identifies a doctor. The backend returns ids as numbers or strings
// depending on the endpoint; ID accepts both and writes numeric ids back as
// JSON numbers.
type ID string

// ParseID trims s into an ID.
func ParseID(s string) ID {
	return ID(strings.TrimSpace(s))
}

func (id ID) String() string { return string(id) }

// Empty reports whether no id is set.
func (id ID) Empty() bool { return strings.TrimSpace(string(id)) == "" }

// Numeric reports whether the id is a plain decimal integer.
func (id ID) Numeric() bool { return numericID.MatchString(string(id)) }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.Numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("doctors: id must be a string or number: %w", err)
	}
	*id = ID(numberString(n))
	return nil
}

// IDFromFields returns the first non-empty of id, doctor_id and user_id.
func IDFromFields(m map[string]any) ID {
	for _, key := range []string{"id", "doctor_id", "user_id"} {
		if id := idFromValue(m[key]); !id.Empty() {
			return id
		}
	}
	return ""
}

func idFromValue(v any) ID {
	switch t := v.(type) {
	case string:
		return ParseID(t)
	case json.Number:
		return ID(numberString(t))
	case float64:
		return ID(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return ID(strconv.Itoa(t))
	case int64:
		return ID(strconv.FormatInt(t, 10))
	case ID:
		return t
	default:
		return ""
	}
}

func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}
