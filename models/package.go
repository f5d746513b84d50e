package models

import (
	"encoding/json"
	"fmt"
)

// PackageEntry describes a single payload blob inside an archive.
type PackageEntry struct {
	// FileName is the entry name inside the archive. It is generated with
	// a collision-resistant scheme and carries no path information.
	FileName string `json:"fileName,omitempty"`

	// OriginalPath is the path of the payload on the device that packaged
	// it. Informational only: checksums, not paths, establish identity.
	OriginalPath string `json:"originalPath,omitempty"`

	// Size is the blob size in bytes.
	Size int64 `json:"size"`

	// Checksum is the labeled content hash of the blob bytes.
	Checksum string `json:"checksum"`
}

// UnmarshalJSON accepts originalPath as either a bare string or an array of
// strings. Some producers wrap the path in a one-element array; an entry
// describes a single file, so the first path wins.
func (e *PackageEntry) UnmarshalJSON(data []byte) error {
	type alias PackageEntry
	aux := struct {
		*alias
		OriginalPath PathRef `json:"originalPath,omitempty"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if paths := aux.OriginalPath.Paths(); len(paths) > 0 {
		e.OriginalPath = paths[0]
	}
	return nil
}

// PackageDescriptor identifies an immutable archive on the remote store and
// the payload entries it contains. A descriptor is only ever produced after
// the archive has been uploaded and read back successfully; updates create a
// new package rather than mutating one in place.
type PackageDescriptor struct {
	// Name is the archive file name (without directory).
	Name string `json:"name"`

	// Path is the archive location relative to the configured remote root.
	Path string `json:"path"`

	// Checksum is the labeled content hash over the sorted entry
	// checksums. It is what makes re-uploads of unchanged content
	// detectable without transferring bytes.
	Checksum string `json:"checksum"`

	// Size is the total payload size in bytes (sum of entry sizes, not
	// the compressed archive size).
	Size int64 `json:"size"`

	// Entries lists the payload blobs contained in the archive.
	Entries []PackageEntry `json:"entries"`
}

// PathRef holds one or more filesystem paths. Upstream clipboard captures
// historically serialized this field either as a bare string or as an array
// of strings; PathRef absorbs both shapes once at the decode boundary so no
// downstream code has to type-sniff.
type PathRef struct {
	paths []string
}

// NewPathRef builds a PathRef from the given paths.
func NewPathRef(paths ...string) PathRef {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return PathRef{}
	}
	return PathRef{paths: out}
}

// Paths returns the held paths in order. The returned slice must not be
// mutated by the caller.
func (r PathRef) Paths() []string { return r.paths }

// Single returns the sole path and true when exactly one path is held.
func (r PathRef) Single() (string, bool) {
	if len(r.paths) == 1 {
		return r.paths[0], true
	}
	return "", false
}

// IsZero reports whether no paths are held.
func (r PathRef) IsZero() bool { return len(r.paths) == 0 }

// UnmarshalJSON accepts either a JSON string or a JSON array of strings.
func (r *PathRef) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = NewPathRef(single)
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("path ref must be string or string array: %w", err)
	}
	*r = NewPathRef(many...)
	return nil
}

// MarshalJSON always emits the canonical array form.
func (r PathRef) MarshalJSON() ([]byte, error) {
	if r.paths == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.paths)
}
