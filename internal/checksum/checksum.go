// Package checksum computes the content hashes and per-item fingerprints the
// rest of the sync engine uses to detect change without transferring
// payloads. Everything here is pure: no I/O, no clock, no randomness.
//
// All checksums are labeled with the algorithm that produced them
// ("sha256:<hex>") so a checksum from a different epoch or build can never be
// compared as equal by accident.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/clipvault/clipsync/models"
)

// Algorithm is the label prefixed to every checksum this package produces.
// One algorithm project-wide; mixing algorithms within a sync epoch would
// make every comparison spuriously unequal.
const Algorithm = "sha256"

// Sum returns the labeled hash of data.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return Algorithm + ":" + hex.EncodeToString(digest[:])
}

// SumString returns the labeled hash of s.
func SumString(s string) string {
	return Sum([]byte(s))
}

// CoreValue extracts the hashable representation of an item.
//
// For text-like items it is the inline value. For binary items it is the
// sorted list of payload checksums — never a filesystem path — so two
// devices holding byte-identical content compute identical checksums even
// though their local paths differ.
func CoreValue(item models.HistoryItem) (string, error) {
	if !item.Type.Binary() {
		return item.Value, nil
	}

	if len(item.Files) == 0 {
		return "", fmt.Errorf("binary item %s has no payload entries", item.ID)
	}

	sums := make([]string, 0, len(item.Files))
	for _, f := range item.Files {
		if f.Checksum == "" {
			return "", fmt.Errorf("binary item %s: payload %q has no checksum", item.ID, f.OriginalPath)
		}
		sums = append(sums, f.Checksum)
	}
	sort.Strings(sums)

	return strings.Join(sums, "\n"), nil
}

// ItemChecksum computes the labeled content checksum of an item over its
// core value. The item's own Checksum field is ignored.
func ItemChecksum(item models.HistoryItem) (string, error) {
	core, err := CoreValue(item)
	if err != nil {
		return "", err
	}
	return SumString(string(item.Type) + "\x00" + core), nil
}

// Fingerprint builds the small diffable record for an item. The item's
// Checksum field must already be populated (the store keeps it current);
// Fingerprint performs no hashing itself.
func Fingerprint(item models.HistoryItem) models.Fingerprint {
	return models.Fingerprint{
		ID:        item.ID,
		Type:      item.Type,
		Checksum:  item.Checksum,
		Size:      item.Size,
		Timestamp: item.LastModified,
		Favorite:  item.Favorite,
		Deleted:   item.Deleted,
		Note:      item.Note,
	}
}

// IndexChecksum hashes the (id, checksum) pairs of fps in id order. Two
// indexes describing the same content yield the same value regardless of
// slice ordering.
func IndexChecksum(fps []models.Fingerprint) string {
	lines := make([]string, 0, len(fps))
	for _, fp := range fps {
		lines = append(lines, fp.ID+"="+fp.Checksum)
	}
	sort.Strings(lines)
	return SumString(strings.Join(lines, "\n"))
}
