// Package reliability keeps off-host copies of the pipeline artifacts and
// performs routine maintenance on the price store.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/aristath/pricecast/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader stores an object under key
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
}

// S3Uploader uploads to an S3-compatible bucket (AWS, R2, MinIO)
type S3Uploader struct {
	bucket   string
	uploader *manager.Uploader
}

// NewS3Uploader builds an uploader from mirror settings
func NewS3Uploader(ctx context.Context, cfg config.MirrorConfig) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		bucket:   cfg.Bucket,
		uploader: manager.NewUploader(client),
	}, nil
}

// Upload streams body to bucket/key
func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader) error {
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// ArtifactMirror snapshots artifact files and directories into a tar.gz and uploads it
type ArtifactMirror struct {
	uploader Uploader
	prefix   string
	sources  []string
	log      zerolog.Logger
	now      func() time.Time
}

// NewArtifactMirror creates a mirror for the given files or directories.
// Missing sources are skipped at snapshot time.
func NewArtifactMirror(uploader Uploader, prefix string, sources []string, log zerolog.Logger) *ArtifactMirror {
	return &ArtifactMirror{
		uploader: uploader,
		prefix:   prefix,
		sources:  sources,
		log:      log.With().Str("service", "artifact_mirror").Logger(),
		now:      time.Now,
	}
}

// Snapshot archives the current artifacts and uploads them, returning the object key
func (m *ArtifactMirror) Snapshot(ctx context.Context) (string, error) {
	startTime := time.Now()

	staging, err := os.CreateTemp("", "pricecast-mirror-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	defer os.Remove(staging.Name())
	defer staging.Close()

	files, err := m.writeArchive(staging)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	size, err := staging.Seek(0, io.SeekEnd)
	if err != nil {
		return "", fmt.Errorf("failed to size archive: %w", err)
	}
	if _, err := staging.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind archive: %w", err)
	}

	key := path.Join(m.prefix, fmt.Sprintf("artifacts-%s.tar.gz", m.now().UTC().Format("2006-01-02-150405")))
	if err := m.uploader.Upload(ctx, key, staging); err != nil {
		return "", err
	}

	m.log.Info().
		Str("key", key).
		Int("files", files).
		Int64("size_bytes", size).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Artifacts mirrored")

	return key, nil
}

func (m *ArtifactMirror) writeArchive(w io.Writer) (int, error) {
	gzipWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzipWriter)

	count := 0
	for _, source := range m.sources {
		paths, err := expandSource(source)
		if err != nil {
			return 0, err
		}
		for _, p := range paths {
			name, err := filepath.Rel(filepath.Dir(source), p)
			if err != nil {
				return 0, err
			}
			if err := addFileToArchive(tarWriter, p, filepath.ToSlash(name)); err != nil {
				return 0, fmt.Errorf("failed to add %s to archive: %w", name, err)
			}
			count++
		}
	}

	if err := tarWriter.Close(); err != nil {
		return 0, err
	}
	if err := gzipWriter.Close(); err != nil {
		return 0, err
	}
	return count, nil
}

// expandSource lists the regular files under source (itself, if a file)
func expandSource(source string) ([]string, error) {
	info, err := os.Stat(source)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(source, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
