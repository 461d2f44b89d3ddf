package service

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discover-release/pkg/storage"
)

func TestReportCounts(t *testing.T) {
	report := newReport()

	report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "a"}, Outcome: OutcomeMigrated})
	report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "b"}, Outcome: OutcomeMigrated})
	report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "c"}, Outcome: OutcomeAlreadyAbsent})
	report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "d"}, Outcome: OutcomeFailed, Reason: "etag mismatch"})

	total, migrated, alreadyAbsent, failed := report.Counts()
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, migrated)
	assert.Equal(t, 1, alreadyAbsent)
	assert.Equal(t, 1, failed)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "d", failures[0].Entry.Key)
	assert.Equal(t, "etag mismatch", failures[0].Reason)
}

func TestReportSucceeded(t *testing.T) {
	t.Run("empty run succeeds", func(t *testing.T) {
		report := newReport()
		report.Finalize()
		assert.True(t, report.Succeeded())
		assert.Empty(t, report.FailureReason())
	})

	t.Run("failed entry fails the run", func(t *testing.T) {
		report := newReport()
		report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "a"}, Outcome: OutcomeFailed, Reason: "boom"})
		assert.False(t, report.Succeeded())
		assert.Contains(t, report.FailureReason(), "1 object(s) failed")
	})

	t.Run("truncation fails the run", func(t *testing.T) {
		report := newReport()
		report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "a"}, Outcome: OutcomeMigrated})
		report.MarkTruncated()
		assert.False(t, report.Succeeded())
		assert.Contains(t, report.FailureReason(), "listing")
	})

	t.Run("fatal error fails the run and wins the reason", func(t *testing.T) {
		report := newReport()
		report.MarkTruncated()
		report.SetFatal(errors.New("access denied"))
		assert.False(t, report.Succeeded())
		assert.Equal(t, "access denied", report.FailureReason())
	})
}

func TestReportKeepsFirstFatal(t *testing.T) {
	report := newReport()
	first := errors.New("first")
	report.SetFatal(first)
	report.SetFatal(errors.New("second"))
	assert.Same(t, first, report.Fatal())
}

func TestReportManifestJSON(t *testing.T) {
	t.Run("empty run yields empty array", func(t *testing.T) {
		report := newReport()
		body, err := report.ManifestJSON()
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(body))
	})

	t.Run("copy records round-trip", func(t *testing.T) {
		report := newReport()
		report.RecordCopy(CopyRecord{
			SourceBucket:  "embargo",
			SourceKey:     "datasets/v1/part-0000.parquet",
			SourceVersion: "v1abc",
			TargetBucket:  "publish",
			TargetKey:     "datasets/v1/part-0000.parquet",
			TargetVersion: "v2def",
		})

		body, err := report.ManifestJSON()
		require.NoError(t, err)

		var records []map[string]string
		require.NoError(t, json.Unmarshal(body, &records))
		require.Len(t, records, 1)
		assert.Equal(t, "embargo", records[0]["source_bucket"])
		assert.Equal(t, "datasets/v1/part-0000.parquet", records[0]["source_key"])
		assert.Equal(t, "v1abc", records[0]["source_version"])
		assert.Equal(t, "publish", records[0]["target_bucket"])
		assert.Equal(t, "v2def", records[0]["target_version"])
	})

	t.Run("version fields omitted when empty", func(t *testing.T) {
		report := newReport()
		report.RecordCopy(CopyRecord{
			SourceBucket: "embargo",
			SourceKey:    "k",
			TargetBucket: "publish",
			TargetKey:    "k",
		})

		body, err := report.ManifestJSON()
		require.NoError(t, err)
		assert.NotContains(t, string(body), "source_version")
		assert.NotContains(t, string(body), "target_version")
	})
}

func TestReportConcurrentRecording(t *testing.T) {
	report := newReport()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				report.Record(EntryResult{Entry: storage.ObjectEntry{Key: "k"}, Outcome: OutcomeMigrated})
				report.RecordCopy(CopyRecord{SourceKey: "k"})
			}
		}()
	}
	wg.Wait()

	total, migrated, _, _ := report.Counts()
	assert.Equal(t, 800, total)
	assert.Equal(t, 800, migrated)
}
