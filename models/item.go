package models

import "time"

// HistoryItem is the local persistence model of a single clipboard history
// entry. It is the shape the store works with; conversion to the wire shape
// happens at the sync boundary (see SyncItem).
type HistoryItem struct {
	// ID is the stable, globally unique identifier of the item.
	// It is assigned once at capture time and never reused.
	ID string `json:"id"`

	// Type is the semantic type of the payload.
	Type ItemType `json:"type"`

	// Value holds the inline payload for text-like types. For binary types
	// it is empty; the payload is described by Files and Package instead.
	Value string `json:"value,omitempty"`

	// Files lists the local payload files of a binary item. FileName is
	// empty until the item has been packaged for upload.
	Files []PackageEntry `json:"files,omitempty"`

	// Package references the remote archive holding the payload of a
	// binary item. Nil until the item has been uploaded, or when the item
	// originated locally and was never packaged.
	Package *PackageDescriptor `json:"package,omitempty"`

	// Favorite marks the item as pinned by the user.
	Favorite bool `json:"favorite"`

	// CreateTime is the capture timestamp.
	CreateTime time.Time `json:"createTime"`

	// LastModified is the timestamp of the last user-visible change
	// (content edit, favorite toggle, note edit, soft delete).
	LastModified time.Time `json:"lastModified"`

	// Note is an optional user annotation.
	Note string `json:"note,omitempty"`

	// DeviceID identifies the installation that created the item.
	DeviceID string `json:"deviceId,omitempty"`

	// Deleted is the soft-deletion tombstone flag. Tombstoned items are
	// kept locally so the deletion can be propagated to other devices.
	Deleted bool `json:"deleted"`

	// Checksum is the labeled content hash over the item's core fields.
	// For binary items it is computed over the sorted payload checksums,
	// never over local paths, so two devices holding byte-identical
	// content always agree on it.
	Checksum string `json:"checksum"`

	// Size is the payload size in bytes (inline value length for
	// text-like types, total payload bytes for binary types).
	Size int64 `json:"size"`

	// FromCloud marks items that were materialized from a remote replica
	// rather than captured on this device.
	FromCloud bool `json:"fromCloud,omitempty"`

	// SyncedAt records when the item was last confirmed present in a
	// published remote index. Nil means the item has never been synced;
	// only such items may be hard-deleted.
	SyncedAt *time.Time `json:"syncedAt,omitempty"`
}

// SyncItem is the wire shape of a history item as it appears in upload and
// download batches. It is a strict subset of HistoryItem: local bookkeeping
// fields (FromCloud, SyncedAt, local file paths) never leave the device.
type SyncItem struct {
	ID           string             `json:"id"`
	Type         ItemType           `json:"type"`
	Value        string             `json:"value,omitempty"`
	Package      *PackageDescriptor `json:"package,omitempty"`
	Favorite     bool               `json:"favorite"`
	CreateTime   time.Time          `json:"createTime"`
	LastModified time.Time          `json:"lastModified"`
	Note         string             `json:"note,omitempty"`
	DeviceID     string             `json:"deviceId,omitempty"`
	Deleted      bool               `json:"deleted"`
	Checksum     string             `json:"checksum"`
	Size         int64              `json:"size"`
}
