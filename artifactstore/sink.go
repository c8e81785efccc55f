package artifactstore

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Sink is implemented by objects that mirror downloaded result files.
type Sink interface {
	// Upload copies the file at localPath and returns the key it was
	// stored under.
	Upload(ctx context.Context, runID, localPath string) (string, error)
}

// MinioConfig encapsulates the settings for creating a new MinioSink.
type MinioConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *MinioConfig) validate() error {
	var err error
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		err = multierror.Append(err, xerrors.Errorf("endpoint has not been provided"))
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		err = multierror.Append(err, xerrors.Errorf("access key and secret key have not been provided"))
	}
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	if cfg.Bucket == "" {
		err = multierror.Append(err, xerrors.Errorf("bucket has not been provided"))
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// MinioSink stores result files in an S3 compatible bucket, one prefix per
// run.
type MinioSink struct {
	cfg    MinioConfig
	client *minio.Client

	initOnce sync.Once
	initErr  error
}

// Compile-time check for ensuring MinioSink implements Sink.
var _ Sink = (*MinioSink)(nil)

// NewMinioSink creates a new MinioSink with the specified config.
func NewMinioSink(cfg MinioConfig) (*MinioSink, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("minio sink: config validation failed: %w", err)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, xerrors.Errorf("minio sink: %w", err)
	}
	return &MinioSink{cfg: cfg, client: client}, nil
}

// Upload implements Sink.
func (s *MinioSink) Upload(ctx context.Context, runID, localPath string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", xerrors.Errorf("upload: ensure bucket: %w", err)
	}

	key := ObjectKey(runID, localPath)
	info, err := s.client.FPutObject(ctx, s.cfg.Bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", xerrors.Errorf("upload %s: %w", localPath, err)
	}

	s.cfg.Logger.WithFields(logrus.Fields{
		"bucket": s.cfg.Bucket,
		"key":    key,
		"size":   info.Size,
	}).Info("mirrored result file")
	return key, nil
}

func (s *MinioSink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
	})
	return s.initErr
}

// ObjectKey returns the key a local file is stored under for a run.
func ObjectKey(runID, localPath string) string {
	return strings.TrimSpace(runID) + "/" + filepath.Base(localPath)
}
