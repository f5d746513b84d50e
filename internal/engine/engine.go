// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipvault/clipsync/internal/checksum"
	"github.com/clipvault/clipsync/internal/filter"
	"github.com/clipvault/clipsync/internal/index"
	"github.com/clipvault/clipsync/internal/logger"
	"github.com/clipvault/clipsync/internal/pack"
	"github.com/clipvault/clipsync/internal/remote"
	"github.com/clipvault/clipsync/internal/store"
	"github.com/clipvault/clipsync/models"
)

// State names the current step of a sync pass.
type State string

const (
	StateIdle        State = "idle"
	StatePreparing   State = "preparing"
	StateDiffing     State = "diffing"
	StateUploading   State = "uploading"
	StateDownloading State = "downloading"
	StateApplying    State = "applying"
	StatePublishing  State = "publishing"
)

// remoteItemsDir is the remote collection holding one wire-item document per
// item. Binary payloads live in separate archives; the document carries only
// the package descriptor.
const remoteItemsDir = "items"

// defaultDownloadLimit bounds the download fan-out of one pass.
const defaultDownloadLimit = 3

// Config carries the per-installation knobs of the engine.
type Config struct {
	// DeviceID is the stable identifier of this installation.
	DeviceID string

	// Mode is the active sync-mode policy.
	Mode models.SyncModeConfig

	// DownloadLimit caps concurrent item downloads. Zero means the
	// default of 3.
	DownloadLimit int
}

// Engine is the sync orchestrator. Construct with New; safe for concurrent
// use — overlapping Sync calls are rejected, not serialized.
type Engine struct {
	local    store.HistoryStore
	remote   remote.Client
	index    IndexManager
	pack     Packager
	planner  Planner
	resolver ConflictResolver
	retry    remote.RetryPolicy
	cfg      Config
	log      *logger.Logger

	inProgress atomic.Bool
	state      atomic.Value // State
}

// New wires an Engine from its collaborators.
func New(local store.HistoryStore, client remote.Client, idx IndexManager, packer Packager,
	planner Planner, resolver ConflictResolver, retry remote.RetryPolicy, cfg Config, log *logger.Logger) *Engine {
	if cfg.DownloadLimit <= 0 {
		cfg.DownloadLimit = defaultDownloadLimit
	}
	e := &Engine{
		local:    local,
		remote:   client,
		index:    idx,
		pack:     packer,
		planner:  planner,
		resolver: resolver,
		retry:    retry,
		cfg:      cfg,
		log:      log,
	}
	e.state.Store(StateIdle)
	return e
}

// State returns the step the engine is currently in.
func (e *Engine) State() State {
	return e.state.Load().(State)
}

func (e *Engine) setState(s State) {
	e.state.Store(s)
	e.log.Debug().Str("state", string(s)).Msg("sync state")
}

// Sync runs one full pass. It returns ErrSyncInProgress when a pass is
// already running. Success on the result means the pass completed; per-item
// failures are collected in Errors without failing the pass. Only
// connectivity, storage, diff, and publish failures fail the pass outright.
func (e *Engine) Sync(ctx context.Context) (models.SyncResult, error) {
	if !e.inProgress.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer e.inProgress.Store(false)
	defer e.setState(StateIdle)

	started := time.Now()
	result := models.SyncResult{Timestamp: started.UTC()}
	fail := func(step string, err error) (models.SyncResult, error) {
		wrapped := fmt.Errorf("%s: %w", step, err)
		result.Errors = append(result.Errors, wrapped.Error())
		result.Duration = time.Since(started)
		e.log.Error().Err(err).Str("step", step).Msg("sync pass failed")
		return result, wrapped
	}

	// ── Preparing ───────────────────────────────────────────────────────
	e.setState(StatePreparing)
	if err := e.remote.TestConnection(ctx); err != nil {
		return fail("connectivity probe", err)
	}

	items, err := e.local.List(ctx, true)
	if err != nil {
		return fail("load local history", err)
	}
	localFPs := e.gather(ctx, items, &result)

	remoteIdx, err := e.index.Fetch(ctx)
	if err != nil {
		return fail("fetch remote index", err)
	}
	if remoteIdx == nil {
		if err = e.bootstrap(ctx); err != nil {
			return fail("bootstrap remote layout", err)
		}
	}

	// ── Diffing ─────────────────────────────────────────────────────────
	e.setState(StateDiffing)
	plan, err := e.planner.Build(ctx, localFPs, remoteIdx)
	if err != nil {
		return fail("build sync plan", err)
	}
	if plan.Empty() && remoteIdx != nil {
		result.Success = true
		result.Duration = time.Since(started)
		e.log.Info().Int("unchanged", plan.Unchanged).Msg("nothing to sync")
		return result, nil
	}

	uploads, applies, pendingIDs := e.resolveConflicts(ctx, plan.Conflicts, &result)

	// ── Uploading ───────────────────────────────────────────────────────
	e.setState(StateUploading)
	for _, fp := range plan.Upload {
		item, gerr := e.local.Get(ctx, fp.ID)
		if gerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, gerr))
			continue
		}
		uploads = append(uploads, item)
	}
	uploadedIDs := e.uploadAll(ctx, uploads, &result)
	e.pushMetadata(ctx, plan.FavoriteToRemote, &result)
	e.propagateDeletes(ctx, plan.DeleteRemote, &result)

	// ── Downloading ─────────────────────────────────────────────────────
	e.setState(StateDownloading)
	downloaded, err := e.downloadAll(ctx, plan.Download, &result)
	if err != nil {
		return fail("download items", err)
	}
	applies = append(applies, downloaded...)

	// ── Applying ────────────────────────────────────────────────────────
	e.setState(StateApplying)
	appliedIDs := e.apply(ctx, plan, applies, &result)

	// ── Publishing ──────────────────────────────────────────────────────
	e.setState(StatePublishing)
	if err = e.publish(ctx, remoteIdx, uploadedIDs, pendingIDs); err != nil {
		return fail("publish index", err)
	}

	now := time.Now().UTC()
	synced := append(uploadedIDs, appliedIDs...)
	if err = e.local.MarkSynced(ctx, now, synced...); err != nil {
		return fail("mark items synced", err)
	}

	result.Success = true
	result.Duration = time.Since(started)
	e.log.Info().
		Int("uploaded", result.Uploaded).
		Int("downloaded", result.Downloaded).
		Int("deleted", result.Deleted).
		Int("conflicts", len(result.Conflicts)).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("sync pass completed")
	return result, nil
}

// gather turns the local history into the fingerprint set handed to the diff
// engine: eligible live items plus every tombstone. Items the policy excludes
// for size are surfaced as capacity errors so the user learns why an item
// never syncs.
func (e *Engine) gather(ctx context.Context, items []models.HistoryItem, result *models.SyncResult) []models.Fingerprint {
	eligible, skipped := filter.Eligible(items, e.cfg.Mode)
	result.Skipped += skipped

	fps := make([]models.Fingerprint, 0, len(eligible))
	for i := range eligible {
		item := eligible[i]
		if item.Checksum == "" {
			if err := e.fingerprintItem(&item); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
				continue
			}
			// The upload and publish steps re-read the store, so the
			// backfilled checksum must land there before diffing.
			if err := e.local.Save(ctx, &item); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
				continue
			}
		}
		fps = append(fps, checksum.Fingerprint(item))
	}

	for _, item := range items {
		if item.Deleted {
			fps = append(fps, checksum.Fingerprint(item))
			continue
		}
		// Oversized items pass the type check but fail the ceiling; that
		// is a capacity condition, not a silent exclusion.
		if item.ID == "" || !item.Type.Valid() || !e.cfg.Mode.Allows(item.Type) {
			continue
		}
		if e.cfg.Mode.OnlyFavorites && !item.Favorite {
			continue
		}
		if c := e.cfg.Mode.SizeCeiling(item.Type); c > 0 && item.Size > c {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Sprintf("item %s: payload %d bytes exceeds %d byte ceiling", item.ID, item.Size, c))
		}
	}

	return fps
}

// fingerprintItem fills in a missing checksum. Binary payloads are hashed
// from disk first so the checksum covers content, never paths.
func (e *Engine) fingerprintItem(item *models.HistoryItem) error {
	if item.Type.Binary() {
		if err := e.pack.HashPayloads(item); err != nil {
			return err
		}
	}
	sum, err := checksum.ItemChecksum(*item)
	if err != nil {
		return err
	}
	item.Checksum = sum
	return nil
}

// bootstrap creates the base remote layout on first sync.
func (e *Engine) bootstrap(ctx context.Context) error {
	for _, dir := range []string{"", "files", remoteItemsDir} {
		if err := e.remote.CreateDirectory(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

// resolveConflicts fetches both versions of every conflicting item and asks
// the resolver to pick a winner. Local winners join the upload batch, remote
// winners the apply batch; pending (manual policy) items are left untouched
// on both sides.
func (e *Engine) resolveConflicts(ctx context.Context, conflicts []models.ConflictPair,
	result *models.SyncResult) (uploads, applies []models.HistoryItem, pendingIDs map[string]bool) {
	pendingIDs = make(map[string]bool)

	for _, pair := range conflicts {
		id := pair.Local.ID
		localItem, err := e.local.Get(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("conflict %s: %v", id, err))
			continue
		}
		remoteWire, err := e.fetchItemDoc(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("conflict %s: %v", id, err))
			continue
		}

		merged, info := e.resolver.Resolve(filter.ToWire(localItem), remoteWire)
		result.Conflicts = append(result.Conflicts, info)
		e.log.Debug().Str("id", id).Str("winner", info.Winner).Bool("pending", info.Pending).
			Msg("conflict resolved")

		switch {
		case info.Pending:
			pendingIDs[id] = true

		case info.Winner == "local":
			// The merge may have pulled a note or favorite over from
			// the losing remote copy; persist before uploading.
			localItem.Favorite = merged.Favorite
			localItem.Note = merged.Note
			localItem.LastModified = merged.LastModified
			if err = e.local.Save(ctx, &localItem); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("conflict %s: %v", id, err))
				continue
			}
			uploads = append(uploads, localItem)

		default: // remote winner
			item := filter.FromWire(merged)
			item.FromCloud = true
			applies = append(applies, item)
		}
	}

	return uploads, applies, pendingIDs
}

// uploadAll pushes the item documents (packaging binary payloads first) and
// returns the ids confirmed uploaded. Capacity and per-item failures are
// recorded and skipped; one bad item never aborts the batch.
func (e *Engine) uploadAll(ctx context.Context, uploads []models.HistoryItem, result *models.SyncResult) []string {
	uploadedIDs := make([]string, 0, len(uploads))

	for i := range uploads {
		item := uploads[i]
		if err := e.uploadOne(ctx, &item); err != nil {
			if errors.Is(err, pack.ErrPackageTooLarge) {
				result.Skipped++
			}
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}
		if item.Package != nil {
			// Persist the descriptor so later passes dedup instead of
			// re-reading payloads.
			if err := e.local.Save(ctx, &item); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
				continue
			}
		}
		uploadedIDs = append(uploadedIDs, item.ID)
		result.Uploaded++
	}

	return uploadedIDs
}

func (e *Engine) uploadOne(ctx context.Context, item *models.HistoryItem) error {
	if item.Type.Binary() && len(item.Files) > 0 {
		desc, err := e.pack.PackAndUpload(ctx, item)
		if err != nil {
			return err
		}
		item.Package = desc
	}
	return e.putItemDoc(ctx, filter.ToWire(*item))
}

// pushMetadata refreshes the remote item document for items whose content is
// unchanged but whose favorite flag or note moved locally. The payload is
// never touched; the updated fingerprint travels in the published index.
func (e *Engine) pushMetadata(ctx context.Context, fps []models.Fingerprint, result *models.SyncResult) {
	for _, fp := range fps {
		item, err := e.local.Get(ctx, fp.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, err))
			continue
		}
		if err = e.putItemDoc(ctx, filter.ToWire(item)); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, err))
		}
	}
}

// propagateDeletes removes the remote item documents of locally tombstoned
// items. Archives are left alone: another device may still lazily materialize
// from them, and remote-side garbage collection is not this engine's job. The
// tombstone itself travels in the published index.
func (e *Engine) propagateDeletes(ctx context.Context, fps []models.Fingerprint, result *models.SyncResult) {
	for _, fp := range fps {
		err := e.retry.Do(ctx, func(ctx context.Context) error {
			return e.remote.Delete(ctx, itemDocPath(fp.ID))
		})
		if err != nil && !errors.Is(err, remote.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, err))
			continue
		}
		result.Deleted++
	}
}

// downloadAll fetches the wire documents of to-download items with bounded
// fan-out. Payload bytes of binary items are not fetched here; materialization
// is lazy. Per-item failures are collected and do not abort siblings.
func (e *Engine) downloadAll(ctx context.Context, fps []models.Fingerprint,
	result *models.SyncResult) ([]models.HistoryItem, error) {
	if len(fps) == 0 {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		items = make([]models.HistoryItem, 0, len(fps))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.DownloadLimit)

	for _, fp := range fps {
		fp := fp
		g.Go(func() error {
			wire, err := e.fetchItemDoc(gctx, fp.ID)
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, err))
				mu.Unlock()
				return nil
			}

			item := filter.FromWire(wire)
			item.FromCloud = true
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return items, nil
}

// apply writes the pass results into local storage. Deletions land first so a
// stale add in the same batch cannot resurrect a tombstoned id.
func (e *Engine) apply(ctx context.Context, plan models.SyncPlan, items []models.HistoryItem,
	result *models.SyncResult) []string {
	now := time.Now().UTC()

	for _, id := range plan.DeleteLocal {
		err := e.local.SoftDelete(ctx, id, now)
		if err != nil && !errors.Is(err, store.ErrItemNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", id, err))
			continue
		}
		result.Deleted++
	}

	for _, fp := range plan.FavoriteToLocal {
		item, err := e.local.Get(ctx, fp.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, err))
			continue
		}
		item.Favorite = fp.Favorite
		item.Note = fp.Note
		item.LastModified = fp.Timestamp
		if err = e.local.Save(ctx, &item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", fp.ID, err))
		}
	}

	appliedIDs := make([]string, 0, len(items))
	for i := range items {
		item := items[i]
		if err := e.local.Save(ctx, &item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}
		appliedIDs = append(appliedIDs, item.ID)
		result.Downloaded++
	}

	return appliedIDs
}

// publish rebuilds the index from the post-apply local state and overwrites
// the remote document. A live item's fingerprint is published only when the
// remote is known to hold its payload: it was confirmed uploaded this pass or
// the previous index already listed it. Items whose upload failed stay out so
// the index never references unconfirmed blobs.
func (e *Engine) publish(ctx context.Context, oldIdx *models.RemoteIndex,
	uploadedIDs []string, pendingIDs map[string]bool) error {
	items, err := e.local.List(ctx, true)
	if err != nil {
		return err
	}

	uploaded := make(map[string]bool, len(uploadedIDs))
	for _, id := range uploadedIDs {
		uploaded[id] = true
	}
	knownRemote := make(map[string]models.Fingerprint)
	if oldIdx != nil {
		knownRemote = make(map[string]models.Fingerprint, len(oldIdx.Items))
		for _, fp := range oldIdx.Items {
			knownRemote[fp.ID] = fp
		}
	}

	eligible, _ := filter.Eligible(items, e.cfg.Mode)
	live := make(map[string]bool, len(eligible))
	fps := make([]models.Fingerprint, 0, len(items))
	for _, item := range eligible {
		old, known := knownRemote[item.ID]
		if !uploaded[item.ID] && !known {
			continue
		}
		if pendingIDs[item.ID] {
			// Unresolved conflict: leave the remote's version in place.
			fps = append(fps, old)
			live[item.ID] = true
			continue
		}
		fps = append(fps, checksum.Fingerprint(item))
		live[item.ID] = true
	}
	for _, item := range items {
		if item.Deleted {
			fps = append(fps, checksum.Fingerprint(item))
		}
	}

	var deletedIDs []string
	if oldIdx != nil {
		for _, id := range oldIdx.DeletedItems {
			if !live[id] {
				deletedIDs = append(deletedIDs, id)
			}
		}
	}

	newIdx := index.Build(e.cfg.DeviceID, fps, deletedIDs)
	return e.index.Publish(ctx, newIdx)
}

func itemDocPath(id string) string {
	return remoteItemsDir + "/" + id + ".json"
}

func (e *Engine) putItemDoc(ctx context.Context, item models.SyncItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}
	return e.retry.Do(ctx, func(ctx context.Context) error {
		return e.remote.Upload(ctx, itemDocPath(item.ID), data)
	})
}

func (e *Engine) fetchItemDoc(ctx context.Context, id string) (models.SyncItem, error) {
	var data []byte
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		var derr error
		data, derr = e.remote.Download(ctx, itemDocPath(id))
		return derr
	})
	if err != nil {
		return models.SyncItem{}, err
	}

	var item models.SyncItem
	if err = json.Unmarshal(data, &item); err != nil {
		return models.SyncItem{}, fmt.Errorf("decode item %s: %w", id, err)
	}
	return item, nil
}
