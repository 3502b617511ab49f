package custom

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Datetime is a point in time stored as RFC3339 text in UTC.
type Datetime time.Time

// Now returns the current time as a Datetime.
func Now() Datetime {
	return Datetime(time.Now().UTC())
}

// Time returns the underlying time.Time.
func (d Datetime) Time() time.Time {
	return time.Time(d)
}

// IsZero reports whether d is the zero time.
func (d Datetime) IsZero() bool {
	return time.Time(d).IsZero()
}

// MarshalJSON implements the json.Marshaler interface.
func (d Datetime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(text []byte) error {
	s := string(text)
	if s == "null" || s == `""` {
		*d = Datetime{}
		return nil
	}

	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("invalid datetime %s: %w", s, err)
	}
	return d.parse(unquoted)
}

// Scan implements the sql.Scanner interface.
func (d *Datetime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Datetime{}
		return nil
	case time.Time:
		*d = Datetime(v.UTC())
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("invalid scan, type %T not supported for %T", src, d)
	}
}

// Value implements the driver.Valuer interface.
func (d Datetime) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return time.Time(d).UTC().Format(time.RFC3339Nano), nil
}

// String implements the fmt.Stringer interface.
func (d Datetime) String() string {
	return time.Time(d).UTC().Format(time.RFC3339)
}

func (d *Datetime) parse(s string) error {
	if s == "" {
		*d = Datetime{}
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// CURRENT_TIMESTAMP defaults are written without a zone.
		t, err = time.Parse(time.DateTime, s)
		if err != nil {
			return fmt.Errorf("invalid datetime: %s", s)
		}
	}
	*d = Datetime(t.UTC())
	return nil
}
