package source

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"
)

// S3API is the subset of the S3 client used to fetch objects
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener opens ingestion sources by URI: a local path, gs://bucket/object or s3://bucket/key.
// Cloud clients are created on first use.
type Opener struct {
	s3Region string

	mu  sync.Mutex
	gcs *storage.Client
	s3  S3API
}

type Option func(*Opener)

func WithS3Region(region string) Option {
	return func(o *Opener) {
		o.s3Region = region
	}
}

func WithGCSClient(client *storage.Client) Option {
	return func(o *Opener) {
		o.gcs = client
	}
}

func WithS3Client(client S3API) Option {
	return func(o *Opener) {
		o.s3 = client
	}
}

func NewOpener(opts ...Option) *Opener {
	o := &Opener{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open returns a reader for uri. The caller closes it.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(uri, "gs://"):
		bucket, object, err := splitObjectURI(uri)
		if err != nil {
			return nil, err
		}
		return o.openGCS(ctx, bucket, object)

	case strings.HasPrefix(uri, "s3://"):
		bucket, key, err := splitObjectURI(uri)
		if err != nil {
			return nil, err
		}
		return o.openS3(ctx, bucket, key)

	default:
		f, err := os.Open(strings.TrimPrefix(uri, "file://"))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open source file", goerr.V("path", uri))
		}
		return f, nil
	}
}

func splitObjectURI(uri string) (string, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", goerr.Wrap(err, "invalid source URI", goerr.V("uri", uri))
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", goerr.New("source URI needs bucket and object", goerr.V("uri", uri))
	}
	return u.Host, key, nil
}

func (o *Opener) openGCS(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	o.mu.Lock()
	if o.gcs == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			o.mu.Unlock()
			return nil, goerr.Wrap(err, "failed to create GCS client")
		}
		o.gcs = client
	}
	client := o.gcs
	o.mu.Unlock()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GCS object",
			goerr.V("bucket", bucket),
			goerr.V("object", object))
	}
	return r, nil
}

func (o *Opener) openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	if o.s3 == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if o.s3Region != "" {
			opts = append(opts, awsconfig.WithRegion(o.s3Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			o.mu.Unlock()
			return nil, goerr.Wrap(err, "failed to load AWS config")
		}
		o.s3 = s3.NewFromConfig(cfg)
	}
	client := o.s3
	o.mu.Unlock()

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read S3 object",
			goerr.V("bucket", bucket),
			goerr.V("key", key))
	}
	return out.Body, nil
}

// Close releases cloud clients created by the opener
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gcs != nil {
		if err := o.gcs.Close(); err != nil {
			return goerr.Wrap(err, "failed to close GCS client")
		}
		o.gcs = nil
	}
	return nil
}
