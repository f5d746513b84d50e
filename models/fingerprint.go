package models

import "time"

// Fingerprint is the small per-item record the remote index carries. It is
// everything the diff engine needs to classify an item without ever touching
// the payload.
type Fingerprint struct {
	// ID is the item identity, shared across devices.
	ID string `json:"id"`

	// Type is the item's semantic type.
	Type ItemType `json:"type"`

	// Checksum is the labeled, path-independent content hash.
	Checksum string `json:"checksum"`

	// Size is the payload size in bytes.
	Size int64 `json:"size"`

	// Timestamp is the item's LastModified time.
	Timestamp time.Time `json:"timestamp"`

	// Favorite is the pinned flag, propagated independently of content.
	Favorite bool `json:"favorite"`

	// Deleted marks a tombstone.
	Deleted bool `json:"deleted"`

	// Note is the user annotation. Carried in the fingerprint so note-only
	// edits propagate without a payload transfer.
	Note string `json:"note,omitempty"`
}

// IndexStatistics aggregates what a published index describes. Recomputed on
// every publish; informational only, never used for diffing.
type IndexStatistics struct {
	// TotalItems is the number of live (non-tombstoned) fingerprints.
	TotalItems int `json:"totalItems"`

	// TotalSize is the sum of live payload sizes in bytes.
	TotalSize int64 `json:"totalSize"`

	// CountByType breaks TotalItems down per item type.
	CountByType map[ItemType]int `json:"countByType,omitempty"`
}

// RemoteIndex is the single JSON document on the remote store that lists one
// fingerprint per item. It is overwritten, never appended, on each successful
// sync pass; the last publisher wins at the document level and individual
// items are reconciled before the overwrite.
type RemoteIndex struct {
	// Timestamp is when the index was published.
	Timestamp time.Time `json:"timestamp"`

	// DeviceID identifies the device that published this revision.
	DeviceID string `json:"deviceId"`

	// Items holds one fingerprint per known item, tombstones included.
	Items []Fingerprint `json:"items"`

	// DeletedItems lists ids whose tombstones have been compacted out of
	// Items. A device seeing one of these ids locally must apply the
	// deletion unless its copy was modified after Timestamp.
	DeletedItems []string `json:"deletedItems,omitempty"`

	// DataChecksum is the labeled hash over the sorted (id, checksum)
	// pairs of Items. Two indexes with equal DataChecksum describe the
	// same content.
	DataChecksum string `json:"dataChecksum"`

	// Statistics summarizes the published content.
	Statistics IndexStatistics `json:"statistics"`
}

// Item returns the fingerprint for id and whether it is present.
func (ri *RemoteIndex) Item(id string) (Fingerprint, bool) {
	for _, fp := range ri.Items {
		if fp.ID == id {
			return fp, true
		}
	}
	return Fingerprint{}, false
}
