package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/pkg/logging"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// AssetScanner walks the static asset directory and flags images likely to
// hurt page load times
type AssetScanner struct {
	dir      string
	maxBytes int64
	logger   *logging.Logger
}

// NewAssetScanner creates a scanner over a directory. MaxBytes is the size
// limit above which an image is flagged outright.
func NewAssetScanner(dir string, maxBytes int64, logger *logging.Logger) *AssetScanner {
	return &AssetScanner{
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logger.WithComponent("asset-scanner"),
	}
}

// Scan walks the asset directory and reports oversized images and large
// legacy-format images worth converting. A missing or unconfigured
// directory yields empty findings. Cancelling the context stops the walk
// and returns whatever was gathered with the context error.
func (s *AssetScanner) Scan(ctx context.Context) (entity.AssetFindings, error) {
	var findings entity.AssetFindings

	if s.dir == "" {
		return findings, nil
	}
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Debug("Asset directory does not exist, skipping scan",
			logging.String("dir", s.dir))
		return findings, nil
	}

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("Skipping unreadable asset path",
				logging.String("path", path),
				logging.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !imageExtensions[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		findings.ScannedCount++
		if rec, flagged := s.evaluate(path, ext, info.Size()); flagged {
			findings.Recommendations = append(findings.Recommendations, rec)
		}
		return nil
	})

	return findings, err
}

func (s *AssetScanner) evaluate(path, ext string, size int64) (entity.ImageRecommendation, bool) {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		rel = path
	}

	if size > s.maxBytes {
		return entity.ImageRecommendation{
			Path:       rel,
			SizeBytes:  size,
			Issue:      fmt.Sprintf("image is %d KB, above the %d KB limit", size/1024, s.maxBytes/1024),
			Suggestion: "Compress the image and serve a WebP variant",
		}, true
	}

	if (ext == ".png" || ext == ".jpg" || ext == ".jpeg") && size > s.maxBytes/2 {
		return entity.ImageRecommendation{
			Path:       rel,
			SizeBytes:  size,
			Issue:      fmt.Sprintf("large %s image close to the %d KB limit", strings.TrimPrefix(ext, "."), s.maxBytes/1024),
			Suggestion: "Convert to WebP to cut transfer size",
		}, true
	}

	return entity.ImageRecommendation{}, false
}
