package chatmodel

import "strings"

// String is a simple string type that implements the ContentProvider interface,
// it can be used as a tool output that is returned to the model as is.
type String struct {
	value string
}

func NewString(str string) *String {
	return &String{
		value: str,
	}
}

// GetContent gets the content of the message for the chat history
func (s String) GetContent() string {
	return s.value
}

func (s String) String() string {
	return s.value
}

func (s String) Bytes() []byte {
	return []byte(s.value)
}

// Unmarshal sets the value, removing the JSON quotes if present
func (s *String) Unmarshal(bs []byte) error {
	str := strings.Trim(string(bs), "\"")

	*s = String{value: str}
	return nil
}
