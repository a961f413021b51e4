package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"lit-review/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// NewS3Client creates an S3 client for the configured Spaces endpoint.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.SpacesURL,
				SigningRegion:     cfg.SpacesRegion,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.SpacesRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.SpacesKey, cfg.SpacesSecret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// Backups pushes timestamped copies of the database file to object storage
// and pulls them back for restore.
type Backups struct {
	Client *s3.Client
	Bucket string
	Prefix string
	Keep   int
	Logger *zap.Logger
}

// NewBackups wires a Backups helper from the configuration.
func NewBackups(client *s3.Client, cfg *config.Config, logger *zap.Logger) *Backups {
	return &Backups{
		Client: client,
		Bucket: cfg.SpacesBucket,
		Prefix: cfg.BackupPrefix,
		Keep:   cfg.KeepBackups,
		Logger: logger,
	}
}

// BackupKey builds the object key for a backup taken at t.
func (b *Backups) BackupKey(t time.Time) string {
	return fmt.Sprintf("%slit_review_%s.db", b.Prefix, t.UTC().Format("20060102-150405"))
}

// Push uploads the database file at path under a timestamped key and rotates
// old backups. Returns the key written.
func (b *Backups) Push(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := b.BackupKey(time.Now())
	_, err = b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &b.Bucket,
		Key:    &key,
		Body:   f,
	})
	if err != nil {
		return "", err
	}
	b.Logger.Info("Backup uploaded", zap.String("key", key))

	if err := b.Rotate(ctx); err != nil {
		b.Logger.Warn("Backup rotation failed", zap.Error(err))
	}
	return key, nil
}

// BackupObject is one stored backup.
type BackupObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// List returns the stored backups under the prefix, newest first. Directory
// placeholders and empty objects are skipped.
func (b *Backups) List(ctx context.Context) ([]BackupObject, error) {
	var objects []BackupObject

	paginator := s3.NewListObjectsV2Paginator(b.Client, &s3.ListObjectsV2Input{
		Bucket: &b.Bucket,
		Prefix: &b.Prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			var size int64
			if obj.Size != nil {
				size = *obj.Size
			}
			if size == 0 {
				continue
			}
			var modified time.Time
			if obj.LastModified != nil {
				modified = *obj.LastModified
			}
			objects = append(objects, BackupObject{Key: *obj.Key, Size: size, LastModified: modified})
		}
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

// Pull downloads the newest backup to path. Fails when no backup exists.
func (b *Backups) Pull(ctx context.Context, path string) (string, error) {
	objects, err := b.List(ctx)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", fmt.Errorf("no backups found under %s", b.Prefix)
	}
	newest := objects[0]

	out, err := b.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.Bucket,
		Key:    &newest.Key,
	})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.ReadFrom(out.Body); err != nil {
		return "", err
	}
	b.Logger.Info("Backup restored", zap.String("key", newest.Key), zap.String("path", path))
	return newest.Key, nil
}

// Delete removes one backup by key.
func (b *Backups) Delete(ctx context.Context, key string) error {
	_, err := b.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.Bucket,
		Key:    &key,
	})
	return err
}

// Rotate deletes all but the newest Keep backups. Keep <= 0 disables
// rotation.
func (b *Backups) Rotate(ctx context.Context) error {
	if b.Keep <= 0 {
		return nil
	}
	objects, err := b.List(ctx)
	if err != nil {
		return err
	}
	for _, obj := range objects[minInt(b.Keep, len(objects)):] {
		if err := b.Delete(ctx, obj.Key); err != nil {
			return err
		}
		b.Logger.Info("Old backup removed", zap.String("key", obj.Key))
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
