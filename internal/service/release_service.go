package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"discover-release/internal/config"
	"discover-release/pkg/storage"
)

// manifestName is the manifest object uploaded under the released prefix in
// both buckets once the run drains.
const manifestName = "discover-release-results.json"

// storeProvider abstracts the provider factory for testing.
type storeProvider interface {
	GetReleaseStore(ctx context.Context, providerName string) (storage.ReleaseStore, error)
}

// ReleaseService migrates every object under the requested prefix from the
// embargo bucket to the publish bucket: list, copy, verify, delete, report.
type ReleaseService struct {
	providerFactory storeProvider
	cfg             *config.Config
	logger          *slog.Logger
}

func NewReleaseService(providerFactory storeProvider, cfg *config.Config, logger *slog.Logger) *ReleaseService {
	return &ReleaseService{
		providerFactory: providerFactory,
		cfg:             cfg,
		logger:          logger,
	}
}

// Run executes one release attempt. The returned report is non-nil whenever a
// run started, even when err is also non-nil. Safe to re-run after any
// failure: entries already at the destination are recognized and only removed
// from the source.
func (s *ReleaseService) Run(ctx context.Context, providerName, runID string) (*Report, error) {
	req := s.cfg.Release
	log := s.logger.With(
		"run_id", runID,
		"prefix", req.KeyPrefix,
		"embargo_bucket", req.EmbargoBucket,
		"publish_bucket", req.PublishBucket,
	)

	store, err := s.providerFactory.GetReleaseStore(ctx, providerName)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	report := newReport()
	state := newRunState()

	versioned, err := store.IsVersioned(ctx, req.EmbargoBucket)
	if err != nil {
		report.SetFatal(err)
		report.Finalize()
		return report, fmt.Errorf("probing bucket versioning: %w", err)
	}
	log.Info("starting release run", "versioned", versioned, "workers", s.cfg.Workers, "deadline", s.cfg.Deadline.String())

	// The run deadline gates the submission of new work only. In-flight
	// entries drain on opBase so a copy that already happened is always
	// followed by its delete.
	runCtx, cancelRun := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancelRun()
	opBase := context.WithoutCancel(ctx)

	entries := make(chan storage.ObjectEntry)
	producerDone := make(chan struct{})

	go func() {
		defer close(entries)
		defer close(producerDone)

		for entry, err := range store.List(runCtx, req.EmbargoBucket, req.KeyPrefix, versioned) {
			if err != nil {
				if storage.IsFatal(err) {
					log.Error("listing aborted", "error", err)
					report.SetFatal(err)
					cancelRun()
					return
				}
				log.Warn("listing stopped early", "error", err)
				report.MarkTruncated()
				return
			}

			select {
			case entries <- entry:
			case <-runCtx.Done():
				log.Warn("run deadline reached during listing")
				report.MarkTruncated()
				return
			}
		}
	}()

	g := new(errgroup.Group)
	for range s.cfg.Workers {
		g.Go(func() error {
			for entry := range entries {
				s.migrate(opBase, store, entry, report, log)
				if report.Fatal() != nil {
					cancelRun()
				}
			}
			return nil
		})
	}

	<-producerDone
	if err := state.Transition(StateDraining); err != nil {
		return report, err
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := state.Transition(StateReporting); err != nil {
		return report, err
	}

	report.Finalize()

	var runErr error
	if fatal := report.Fatal(); fatal != nil {
		runErr = fatal
	} else if err := s.uploadManifest(opBase, store, report, log); err != nil {
		runErr = err
	}

	if err := state.Transition(StateDone); err != nil {
		return report, err
	}

	total, migrated, alreadyAbsent, failed := report.Counts()
	log.Info("release run finished",
		"total", total,
		"migrated", migrated,
		"already_absent", alreadyAbsent,
		"failed", failed,
		"truncated", report.Truncated(),
		"duration", report.Duration().String(),
	)
	return report, runErr
}

// migrate processes one entry end to end. Copy must verify before Remove may
// run; a failed entry stays at the source and never blocks its siblings.
func (s *ReleaseService) migrate(ctx context.Context, store storage.ReleaseStore, entry storage.ObjectEntry, report *Report, log *slog.Logger) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	req := s.cfg.Release

	if !entry.IsDeleteMarker {
		result, err := store.Copy(opCtx, req.EmbargoBucket, entry, req.PublishBucket)
		if err != nil {
			if storage.IsFatal(err) {
				log.Error("fatal error while copying", "key", entry.Ref(), "error", err)
				report.SetFatal(err)
				return
			}
			log.Warn("copy failed", "key", entry.Ref(), "error", err)
			report.Record(EntryResult{Entry: entry, Outcome: OutcomeFailed, Reason: err.Error()})
			return
		}

		if result.Disposition == storage.SourceMissing {
			log.Debug("source object already absent", "key", entry.Ref())
			report.Record(EntryResult{Entry: entry, Outcome: OutcomeAlreadyAbsent})
			return
		}

		report.RecordCopy(CopyRecord{
			SourceBucket:  req.EmbargoBucket,
			SourceKey:     entry.Key,
			SourceVersion: entry.VersionID,
			TargetBucket:  req.PublishBucket,
			TargetKey:     entry.Key,
			TargetVersion: result.DestVersionID,
		})
	}

	removed, err := store.Remove(opCtx, req.EmbargoBucket, entry)
	if err != nil {
		if storage.IsFatal(err) {
			log.Error("fatal error while deleting", "key", entry.Ref(), "error", err)
			report.SetFatal(err)
			return
		}
		log.Warn("delete failed", "key", entry.Ref(), "error", err)
		report.Record(EntryResult{Entry: entry, Outcome: OutcomeFailed, Reason: err.Error()})
		return
	}

	if !removed.Removed && entry.IsDeleteMarker {
		report.Record(EntryResult{Entry: entry, Outcome: OutcomeAlreadyAbsent})
		return
	}

	log.Debug("entry migrated", "key", entry.Ref())
	report.Record(EntryResult{Entry: entry, Outcome: OutcomeMigrated})
}

// uploadManifest writes the copy records under the released prefix in both
// buckets: the publish side documents what arrived, the embargo side leaves a
// tombstone where the dataset used to be.
func (s *ReleaseService) uploadManifest(ctx context.Context, store storage.ReleaseStore, report *Report, log *slog.Logger) error {
	body, err := report.ManifestJSON()
	if err != nil {
		return fmt.Errorf("encoding release manifest: %w", err)
	}

	req := s.cfg.Release
	key := req.KeyPrefix + manifestName

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	for _, bucket := range []string{req.PublishBucket, req.EmbargoBucket} {
		if err := store.PutManifest(opCtx, bucket, key, body); err != nil {
			return fmt.Errorf("uploading release manifest to %s: %w", bucket, err)
		}
		log.Info("release manifest uploaded", "bucket", bucket, "key", key)
	}
	return nil
}
