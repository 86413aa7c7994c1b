package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAsset(t *testing.T, dir, name string, size int) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanFlagsOversizedImages(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "hero.png", 15*1024)
	writeAsset(t, dir, "icon.svg", 1024)

	scanner := NewAssetScanner(dir, 10*1024, newTestLogger())
	findings, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, findings.ScannedCount)
	require.Len(t, findings.Recommendations, 1)

	rec := findings.Recommendations[0]
	assert.Equal(t, "hero.png", rec.Path)
	assert.Equal(t, int64(15*1024), rec.SizeBytes)
	assert.Contains(t, rec.Issue, "above the 10 KB limit")
	assert.Equal(t, "Compress the image and serve a WebP variant", rec.Suggestion)
}

func TestScanFlagsLargeLegacyFormats(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "photo.jpg", 6*1024)
	writeAsset(t, dir, "banner.webp", 6*1024)

	scanner := NewAssetScanner(dir, 10*1024, newTestLogger())
	findings, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, findings.ScannedCount)
	require.Len(t, findings.Recommendations, 1)

	// Only the legacy format is flagged; the same size in WebP passes.
	rec := findings.Recommendations[0]
	assert.Equal(t, "photo.jpg", rec.Path)
	assert.Contains(t, rec.Issue, "large jpg image")
	assert.Equal(t, "Convert to WebP to cut transfer size", rec.Suggestion)
}

func TestScanCountsOnlyImages(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "logo.png", 512)
	writeAsset(t, dir, "icon.svg", 256)
	writeAsset(t, dir, "notes.txt", 4096)
	writeAsset(t, dir, "styles.css", 4096)

	scanner := NewAssetScanner(dir, 10*1024, newTestLogger())
	findings, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, findings.ScannedCount)
	assert.Empty(t, findings.Recommendations)
}

func TestScanWalksNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, filepath.Join("img", "products", "mug.png"), 15*1024)

	scanner := NewAssetScanner(dir, 10*1024, newTestLogger())
	findings, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	require.Len(t, findings.Recommendations, 1)
	assert.Equal(t, filepath.Join("img", "products", "mug.png"), findings.Recommendations[0].Path)
}

func TestScanMissingDirectoryYieldsEmptyFindings(t *testing.T) {
	scanner := NewAssetScanner(filepath.Join(t.TempDir(), "absent"), 10*1024, newTestLogger())
	findings, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	assert.Zero(t, findings.ScannedCount)
	assert.Empty(t, findings.Recommendations)
}

func TestScanUnconfiguredDirectoryIsSkipped(t *testing.T) {
	scanner := NewAssetScanner("", 10*1024, newTestLogger())
	findings, err := scanner.Scan(context.Background())

	require.NoError(t, err)
	assert.Zero(t, findings.ScannedCount)
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "hero.png", 1024)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewAssetScanner(dir, 10*1024, newTestLogger())
	_, err := scanner.Scan(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
