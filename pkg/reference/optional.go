package reference

import (
	"bytes"
	"encoding/json"
)

// Optional is a request field that distinguishes an omitted key from an empty
// string. An explicit JSON null is treated the same as an omitted key.
type Optional struct {
	set   bool
	value string
}

// Set returns a present field.
func Set(value string) Optional {
	return Optional{set: true, value: value}
}

// Unset returns an omitted field.
func Unset() Optional {
	return Optional{}
}

// OptionalFrom treats a nil pointer as omitted.
func OptionalFrom(value *string) Optional {
	if value == nil {
		return Unset()
	}
	return Set(*value)
}

func (o Optional) IsSet() bool {
	return o.set
}

// IsClear reports a present, empty value.
func (o Optional) IsClear() bool {
	return o.set && o.value == ""
}

func (o Optional) Value() string {
	return o.value
}

// Ptr returns nil for omitted and empty values.
func (o Optional) Ptr() *string {
	if !o.set || o.value == "" {
		return nil
	}
	v := o.value
	return &v
}

func (o *Optional) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*o = Unset()
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
