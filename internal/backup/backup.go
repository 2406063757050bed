package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
)

const (
	timestampLayout = "20060102_150405"
	metadataName    = "_backup_metadata.json"
)

// Metadata is the JSON sidecar written next to every backup run.
type Metadata struct {
	BackupName    string `json:"backup_name"`
	Timestamp     string `json:"timestamp"`
	CreatedAt     string `json:"created_at"`
	FileCount     int    `json:"file_count"`
	TotalFiles    int    `json:"total_files"`
	RetentionDays int    `json:"retention_days"`
	Status        string `json:"status"` // completed or partial
}

// Info describes one backup run found in the bucket.
type Info struct {
	Name      string   `json:"name"`
	Timestamp string   `json:"timestamp"`
	Prefix    string   `json:"prefix"`
	Metadata  Metadata `json:"metadata"`
}

// Manager pushes and pulls the index and PDF directories to an S3-compatible
// bucket. It is an operational side-channel: the core neither depends on nor
// triggers it.
type Manager struct {
	client *minio.Client
	bucket string
}

func NewManager(cfg *config.BackupConfig) (*Manager, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("backup bucket is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log.Info().Str("bucket", cfg.Bucket).Msg("Initialized backup manager")
	return &Manager{client: client, bucket: cfg.Bucket}, nil
}

// Push uploads every file under sourceDir to
// backups/<name>/<timestamp>/<relative path> and writes the metadata sidecar.
// Individual upload failures are logged and counted, not fatal; Push fails
// only when nothing at all was uploaded.
func (m *Manager) Push(ctx context.Context, sourceDir, name string, retentionDays int) (string, error) {
	stat, err := os.Stat(sourceDir)
	if err != nil || !stat.IsDir() {
		return "", fmt.Errorf("source is not a directory: %s", sourceDir)
	}

	timestamp := time.Now().Format(timestampLayout)
	prefix := fmt.Sprintf("backups/%s/%s", name, timestamp)
	log.Info().Str("name", name).Str("prefix", prefix).Msg("Creating backup")

	var successful, total int
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		total++

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		key := prefix + "/" + filepath.ToSlash(rel)

		opts := minio.PutObjectOptions{}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			opts.ContentType = "application/pdf"
		}
		if _, err := m.client.FPutObject(ctx, m.bucket, key, path, opts); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Error backing up file")
			return nil
		}
		successful++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", sourceDir, err)
	}

	log.Info().Int("successful", successful).Int("total", total).Msg("Backup upload finished")
	if successful == 0 && total > 0 {
		return "", fmt.Errorf("backup failed: no files were uploaded")
	}

	if err := m.writeMetadata(ctx, prefix, name, timestamp, successful, total, retentionDays); err != nil {
		log.Error().Err(err).Msg("Error writing backup metadata")
	}
	return prefix, nil
}

func (m *Manager) writeMetadata(ctx context.Context, prefix, name, timestamp string, fileCount, totalFiles, retentionDays int) error {
	status := "completed"
	if fileCount != totalFiles {
		status = "partial"
	}
	meta := Metadata{
		BackupName:    name,
		Timestamp:     timestamp,
		CreatedAt:     time.Now().Format(time.RFC3339),
		FileCount:     fileCount,
		TotalFiles:    totalFiles,
		RetentionDays: retentionDays,
		Status:        status,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	key := prefix + "/" + metadataName
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

// Pull restores a backup run into destDir, skipping the metadata sidecar.
func (m *Manager) Pull(ctx context.Context, prefix, destDir string) error {
	log.Info().Str("prefix", prefix).Str("dest", destDir).Msg("Restoring backup")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	var successful, total int
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix + "/", Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list backup objects: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, metadataName) {
			continue
		}
		total++

		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/")
		localPath := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := m.client.FGetObject(ctx, m.bucket, obj.Key, localPath, minio.GetObjectOptions{}); err != nil {
			log.Error().Err(err).Str("key", obj.Key).Msg("Error restoring object")
			continue
		}
		successful++
	}

	log.Info().Int("successful", successful).Int("total", total).Msg("Restore finished")
	if successful == 0 {
		return fmt.Errorf("restore failed: no files were downloaded")
	}
	return nil
}

// List returns the backup runs under backups/<name>/, newest first. An empty
// name lists every run.
func (m *Manager) List(ctx context.Context, name string) ([]Info, error) {
	prefix := "backups/"
	if name != "" {
		prefix = "backups/" + name + "/"
	}

	seen := map[string]bool{}
	var infos []Info
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", obj.Err)
		}
		parts := strings.Split(obj.Key, "/")
		if len(parts) < 3 {
			continue
		}
		runPrefix := strings.Join(parts[:3], "/")
		if seen[runPrefix] {
			continue
		}
		seen[runPrefix] = true

		info := Info{Name: parts[1], Timestamp: parts[2], Prefix: runPrefix}
		info.Metadata = m.readMetadata(ctx, runPrefix)
		infos = append(infos, info)
	}

	// newest first
	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp > infos[j].Timestamp })
	return infos, nil
}

func (m *Manager) readMetadata(ctx context.Context, runPrefix string) Metadata {
	meta := Metadata{Status: "unknown"}
	obj, err := m.client.GetObject(ctx, m.bucket, runPrefix+"/"+metadataName, minio.GetObjectOptions{})
	if err != nil {
		return meta
	}
	defer obj.Close()
	_ = json.NewDecoder(obj).Decode(&meta)
	return meta
}

// Cleanup deletes whole backup runs older than retentionDays.
func (m *Manager) Cleanup(ctx context.Context, name string, retentionDays int) (int, error) {
	infos, err := m.List(ctx, name)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, info := range infos {
		if !Expired(info.Timestamp, cutoff) {
			continue
		}
		for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: info.Prefix + "/", Recursive: true}) {
			if obj.Err != nil {
				return deleted, fmt.Errorf("failed to list %s: %w", info.Prefix, obj.Err)
			}
			if err := m.client.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
				log.Error().Err(err).Str("key", obj.Key).Msg("Error deleting object")
			}
		}
		log.Info().Str("prefix", info.Prefix).Msg("Deleted expired backup")
		deleted++
	}
	return deleted, nil
}

// Expired reports whether a backup run timestamp is older than the cutoff.
// Unparseable timestamps are kept.
func Expired(timestamp string, cutoff time.Time) bool {
	ts, err := time.ParseInLocation(timestampLayout, timestamp, time.Local)
	if err != nil {
		return false
	}
	return ts.Before(cutoff)
}
