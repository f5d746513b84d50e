package models

// ItemType defines the semantic type of a clipboard history item.
// The value determines how Value and Files must be interpreted.
type ItemType string

const (
	// TypeText represents plain-text clipboard content.
	// The payload is carried inline in HistoryItem.Value.
	TypeText ItemType = "text"

	// TypeHTML represents HTML clipboard content, carried inline.
	TypeHTML ItemType = "html"

	// TypeRTF represents rich-text clipboard content, carried inline.
	TypeRTF ItemType = "rtf"

	// TypeImage represents an image payload. The bytes live on the local
	// filesystem and travel through the packaging subsystem, never inline.
	TypeImage ItemType = "image"

	// TypeFiles represents one or more copied files. Like TypeImage, the
	// payload is transported as a package, never inline.
	TypeFiles ItemType = "files"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case TypeText, TypeHTML, TypeRTF, TypeImage, TypeFiles:
		return true
	}
	return false
}

// Binary reports whether items of this type carry their payload on the
// filesystem (image/files) rather than inline in Value.
func (t ItemType) Binary() bool {
	return t == TypeImage || t == TypeFiles
}
