package guild

import (
	"database/sql/driver"
	"fmt"
)

// MarshalText encodes the kind with its canonical spelling.
func (k InteractionKind) MarshalText() ([]byte, error) {
	if k == KindUnknown || k > KindEntomopathogenicFungus {
		return nil, fmt.Errorf("guild: cannot encode interaction kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a canonical or alias spelling.
func (k *InteractionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseInteractionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value stores the kind as text.
func (k InteractionKind) Value() (driver.Value, error) {
	b, err := k.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a kind stored as text.
func (k *InteractionKind) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("guild: cannot scan %T into InteractionKind", src)
	}
}
