package dummy

import (
	"encoding/json"
	"fmt"
)

type Unmarshaler interface {
	Unmarshal(bs []byte) error
}

// Encoder is the plain text encoder:
// strings, bytes and Stringer values are used as is,
// other values are encoded as JSON.
type Encoder struct{}

func NewEncoder() *Encoder {
	return new(Encoder)
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	switch s := v.(type) {
	case fmt.Stringer:
		return []byte(s.String()), nil
	case string:
		return []byte(s), nil
	case []byte:
		return s, nil
	case *string:
		return []byte(*s), nil
	case *[]byte:
		return *s, nil
	}
	return json.Marshal(v)
}

func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	switch s := ret.(type) {
	case Unmarshaler:
		return s.Unmarshal(bs)
	case *string:
		*s = string(bs)
	case *[]byte:
		*s = bs
	default:
		return json.Unmarshal(bs, ret)
	}
	return nil
}

func (e *Encoder) Validate(req any) error {
	return nil
}

func (e *Encoder) GetFormatInstructions() string {
	return ""
}
