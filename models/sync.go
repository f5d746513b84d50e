package models

import "time"

// FileLimits bounds what the packaging subsystem will transport.
type FileLimits struct {
	// MaxImageSize is the per-item ceiling for image payloads, in bytes.
	MaxImageSize int64 `json:"maxImageSize" env:"MAX_IMAGE_SIZE"`

	// MaxFileSize is the per-item ceiling for file payloads, in bytes.
	MaxFileSize int64 `json:"maxFileSize" env:"MAX_FILE_SIZE"`

	// MaxPackageSize is the ceiling for one archive, in bytes. An item
	// whose payloads exceed it is skipped, never truncated.
	MaxPackageSize int64 `json:"maxPackageSize" env:"MAX_PACKAGE_SIZE"`
}

// SyncModeConfig is the pure filter policy deciding which local items are
// eligible for a sync pass. It is configuration, not persisted sync state.
type SyncModeConfig struct {
	IncludeText   bool `json:"includeText" env:"INCLUDE_TEXT"`
	IncludeHTML   bool `json:"includeHtml" env:"INCLUDE_HTML"`
	IncludeRTF    bool `json:"includeRtf" env:"INCLUDE_RTF"`
	IncludeImages bool `json:"includeImages" env:"INCLUDE_IMAGES"`
	IncludeFiles  bool `json:"includeFiles" env:"INCLUDE_FILES"`

	// OnlyFavorites restricts syncing to pinned items.
	OnlyFavorites bool `json:"onlyFavorites" env:"ONLY_FAVORITES"`

	FileLimits FileLimits `json:"fileLimits" envPrefix:"LIMIT_"`
}

// Allows reports whether the policy includes items of type t.
func (c SyncModeConfig) Allows(t ItemType) bool {
	switch t {
	case TypeText:
		return c.IncludeText
	case TypeHTML:
		return c.IncludeHTML
	case TypeRTF:
		return c.IncludeRTF
	case TypeImage:
		return c.IncludeImages
	case TypeFiles:
		return c.IncludeFiles
	}
	return false
}

// SizeCeiling returns the per-item size ceiling for type t, or 0 when no
// ceiling applies (text-like types are never size-limited).
func (c SyncModeConfig) SizeCeiling(t ItemType) int64 {
	switch t {
	case TypeImage:
		return c.FileLimits.MaxImageSize
	case TypeFiles:
		return c.FileLimits.MaxFileSize
	}
	return 0
}

// ConflictPair holds the two diverging fingerprints of one item, as found by
// the diff engine before resolution.
type ConflictPair struct {
	Local  Fingerprint `json:"local"`
	Remote Fingerprint `json:"remote"`
}

// SyncPlan is the diff engine's classification of every item id found on
// either side. Each id lands in exactly one category; Unchanged counts the
// ids that need no action at all.
type SyncPlan struct {
	// Upload lists local fingerprints absent remotely (or locally newer
	// than a remote deletion) that must be pushed.
	Upload []Fingerprint

	// Download lists remote fingerprints absent locally (or remotely
	// newer than a local deletion) that must be fetched.
	Download []Fingerprint

	// Conflicts lists ids present on both sides with diverging checksums.
	Conflicts []ConflictPair

	// FavoriteToRemote lists local fingerprints whose content matches the
	// remote copy but whose favorite flag or note must be pushed.
	FavoriteToRemote []Fingerprint

	// FavoriteToLocal is the mirror image: metadata applied locally.
	FavoriteToLocal []Fingerprint

	// DeleteRemote lists local tombstones to propagate to the index.
	DeleteRemote []Fingerprint

	// DeleteLocal lists ids to tombstone locally.
	DeleteLocal []string

	// Unchanged counts ids identical on both sides.
	Unchanged int
}

// Empty reports whether the plan requires no action.
func (p SyncPlan) Empty() bool {
	return len(p.Upload) == 0 && len(p.Download) == 0 && len(p.Conflicts) == 0 &&
		len(p.FavoriteToRemote) == 0 && len(p.FavoriteToLocal) == 0 &&
		len(p.DeleteRemote) == 0 && len(p.DeleteLocal) == 0
}

// ConflictInfo reports how one conflict was resolved.
type ConflictInfo struct {
	// ID is the item the conflict occurred on.
	ID string `json:"id"`

	// Winner is "local" or "remote".
	Winner string `json:"winner"`

	// Policy names the resolution policy that decided the winner.
	Policy string `json:"policy"`

	// LocalTime and RemoteTime are the competing modification times.
	LocalTime  time.Time `json:"localTime"`
	RemoteTime time.Time `json:"remoteTime"`

	// Pending is true under the manual policy: the local copy was kept
	// untouched and the decision is deferred to the user.
	Pending bool `json:"pending,omitempty"`
}

// SyncResult is what one sync pass reports back to the caller. Success means
// the pass completed; individual items may still have failed, in which case
// their failures are listed in Errors.
type SyncResult struct {
	Success    bool           `json:"success"`
	Uploaded   int            `json:"uploaded"`
	Downloaded int            `json:"downloaded"`
	Deleted    int            `json:"deleted"`
	Skipped    int            `json:"skipped"`
	Conflicts  []ConflictInfo `json:"conflicts,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
	Duration   time.Duration  `json:"duration"`
	Timestamp  time.Time      `json:"timestamp"`
}
