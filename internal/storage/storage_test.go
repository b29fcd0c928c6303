package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/scanforge/scanforge/internal/fields"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scans.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	s := openTestStore(t)

	rec := &ScanRecord{FileName: "scan.png", FileType: "image"}
	require.NoError(t, s.Save(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.Positive(t, rec.TimestampMillis)
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &ScanRecord{
		FileName:      "licence.png",
		FileType:      "image",
		ExtractedText: "Card Number 12345678",
		Confidence:    91.5,
		Fields: []fields.Field{
			{Label: "Card Number", Value: "12345678", Confidence: 90},
		},
		ImageData: []byte{0x89, 0x50, 0x4e, 0x47},
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.FileName, got.FileName)
	assert.Equal(t, rec.ExtractedText, got.ExtractedText)
	assert.InDelta(t, rec.Confidence, got.Confidence, 1e-9)
	assert.Equal(t, rec.Fields, got.Fields)
	assert.True(t, bytes.Equal(rec.ImageData, got.ImageData))
}

func TestSaveDropsOversizedImagePayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &ScanRecord{
		FileName:  "huge.png",
		FileType:  "image",
		ImageData: make([]byte, maxImagePayload+1),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImageData, "oversized payload must be omitted")
	assert.Equal(t, "huge.png", got.FileName, "record itself is still stored")
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirstWithoutPayloads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := &ScanRecord{FileName: "a.png", FileType: "image", TimestampMillis: 1000, ImageData: []byte{1}}
	newer := &ScanRecord{FileName: "b.png", FileType: "image", TimestampMillis: 2000, ImageData: []byte{2}}
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b.png", got[0].FileName)
	assert.Equal(t, "a.png", got[1].FileName)
	assert.Empty(t, got[0].ImageData)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &ScanRecord{FileName: "gone.png", FileType: "image"}
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrNotFound)
}

func TestSaveUpsertsOnSameID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &ScanRecord{ID: "fixed", FileName: "v1.png", FileType: "image", TimestampMillis: 1}
	require.NoError(t, s.Save(ctx, rec))
	rec.FileName = "v2.png"
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "v2.png", got.FileName)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
