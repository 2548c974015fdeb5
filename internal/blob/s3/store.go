package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// multipartThreshold is the payload size above which uploads go through the
// multipart manager. Full catalogs run to tens of MiB.
const multipartThreshold = 8 * 1024 * 1024

// partSize is the multipart part size; S3 requires at least 5 MiB.
const partSize int64 = 5 * 1024 * 1024

// DatasetStore implements domain.DatasetStore on a bucket. Datasets live at
// {prefix}/{name}; with history enabled each write is also copied to
// {prefix}/history/{name}/{unix-nanos}.json.
type DatasetStore struct {
	client  *s3.Client
	bucket  string
	prefix  string
	history bool
	now     func() time.Time
}

// NewDatasetStore creates a DatasetStore under prefix in c's bucket.
func NewDatasetStore(c *Client, prefix string, history bool) *DatasetStore {
	return &DatasetStore{
		client:  c.s3,
		bucket:  c.bucket,
		prefix:  prefix,
		history: history,
		now:     time.Now,
	}
}

// Name implements domain.DatasetStore.
func (d *DatasetStore) Name() string { return "s3" }

func (d *DatasetStore) key(name string) string {
	return path.Join(d.prefix, name)
}

func (d *DatasetStore) historyKey(name string, at time.Time) string {
	return path.Join(d.prefix, "history", name, fmt.Sprintf("%d.json", at.UnixNano()))
}

// Put uploads a dataset, switching to multipart for large payloads.
func (d *DatasetStore) Put(ctx context.Context, name string, data []byte) error {
	if err := d.upload(ctx, d.key(name), data); err != nil {
		return err
	}
	if d.history {
		if err := d.upload(ctx, d.historyKey(name, d.now()), data); err != nil {
			return err
		}
	}
	return nil
}

func (d *DatasetStore) upload(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}

	if len(data) < multipartThreshold {
		if _, err := d.client.PutObject(ctx, input); err != nil {
			return fmt.Errorf("s3blob: put object %s: %w", key, err)
		}
		return nil
	}

	uploader := manager.NewUploader(d.client, func(u *manager.Uploader) {
		u.PartSize = partSize
	})
	if _, err := uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3blob: multipart upload %s: %w", key, err)
	}
	return nil
}

// Get downloads a dataset. It returns domain.ErrNotFound for a missing key.
func (d *DatasetStore) Get(ctx context.Context, name string) ([]byte, error) {
	key := d.key(name)
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read %s: %w", key, err)
	}
	return data, nil
}

// isNotFound reports whether err means the object does not exist. GetObject
// returns NoSuchKey; some compatible providers only send a bare 404.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}

var _ domain.DatasetStore = (*DatasetStore)(nil)
