package fetcher

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/nodeclient"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

const defaultCacheSize = 64

// TxAPI is implemented by objects that can fetch a transaction by hash.
type TxAPI interface {
	GetTransaction(ctx context.Context, hash common.Hash) (*nodeclient.TxRecord, error)
}

// Config encapsulates the settings for creating a new Fetcher.
type Config struct {
	// An API for fetching the transaction stored under a leaf.
	TxAPI TxAPI

	// The directory output files are written to.
	OutputDir string

	// The client used for downloads. If not specified, a pooled client
	// from go-cleanhttp will be used instead.
	HTTPClient *http.Client

	// The number of descriptors kept in memory. Defaults to 64.
	CacheSize int

	// If set, the keccak256 digest of every downloaded file is compared
	// with the checksum listed in the descriptor.
	VerifyChecksums bool

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.TxAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("tx API has not been provided"))
	}
	if cfg.OutputDir == "" {
		err = multierror.Append(err, xerrors.Errorf("output directory has not been provided"))
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = cleanhttp.DefaultPooledClient()
	}
	if cfg.CacheSize < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for cache size"))
	} else if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Fetcher resolves completed leaves into result descriptors and downloads
// the files they reference.
type Fetcher struct {
	cfg   Config
	cache *lru.Cache[common.Hash, *Descriptor]
}

// NewFetcher creates a new Fetcher with the specified config.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("fetcher: config validation failed: %w", err)
	}
	cache, err := lru.New[common.Hash, *Descriptor](cfg.CacheSize)
	if err != nil {
		return nil, xerrors.Errorf("fetcher: %w", err)
	}
	return &Fetcher{cfg: cfg, cache: cache}, nil
}

// Fetch returns the descriptor stored under leaf. Descriptors are immutable
// once a leaf exists, so repeated lookups are served from memory.
func (f *Fetcher) Fetch(ctx context.Context, leaf common.Hash) (*Descriptor, error) {
	if desc, ok := f.cache.Get(leaf); ok {
		return desc, nil
	}

	rec, err := f.cfg.TxAPI.GetTransaction(ctx, leaf)
	if err != nil {
		if xerrors.Is(err, workflow.ErrValidation) {
			return nil, xerrors.Errorf("fetch descriptor %s: %w", workflow.HashHex(leaf), err)
		}
		return nil, xerrors.Errorf("fetch descriptor %s: %w: %v", workflow.HashHex(leaf), workflow.ErrNetwork, err)
	}
	desc, err := ParseDescriptor(rec.Raw)
	if err != nil {
		return nil, xerrors.Errorf("fetch descriptor %s: %w", workflow.HashHex(leaf), err)
	}

	f.cache.Add(leaf, desc)
	return desc, nil
}

// Download fetches every file listed in desc, in order, into the output
// directory. Each file is named after the last segment of its virtual
// path. The local paths are returned in descriptor order. The first
// failing transfer aborts the download.
func (f *Fetcher) Download(ctx context.Context, desc *Descriptor) ([]string, error) {
	return f.DownloadTo(ctx, desc, f.cfg.OutputDir)
}

// DownloadTo works like Download but writes into dir.
func (f *Fetcher) DownloadTo(ctx context.Context, desc *Descriptor, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, xerrors.Errorf("download: %w", err)
	}

	files := desc.Files()
	paths := make([]string, 0, len(files))
	for _, ref := range files {
		name, err := LocalName(ref.VMPath)
		if err != nil {
			return paths, xerrors.Errorf("download: %w", err)
		}
		dst := filepath.Join(dir, name)
		if err = f.downloadFile(ctx, ref, dst); err != nil {
			return paths, xerrors.Errorf("download %s: %w", ref.URL, err)
		}

		f.cfg.Logger.WithFields(logrus.Fields{
			"url":     ref.URL,
			"vm_path": ref.VMPath,
			"path":    dst,
		}).Info("downloaded result file")
		paths = append(paths, dst)
	}
	return paths, nil
}

// LocalName returns the last segment of a virtual path.
func LocalName(vmPath string) (string, error) {
	name := path.Base(vmPath)
	switch name {
	case ".", "/", "..":
		return "", xerrors.Errorf("%w: virtual path %q has no file name", workflow.ErrValidation, vmPath)
	}
	return name, nil
}

func (f *Fetcher) downloadFile(ctx context.Context, ref FileRef, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return xerrors.Errorf("%w: %v", workflow.ErrTransfer, err)
	}
	res, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return xerrors.Errorf("%w: %v", workflow.ErrTransfer, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return xerrors.Errorf("%w: unexpected status %s", workflow.ErrTransfer, res.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	hasher := crypto.NewKeccakState()
	if _, err = io.Copy(io.MultiWriter(out, hasher), res.Body); err != nil {
		_ = out.Close()
		return xerrors.Errorf("%w: %v", workflow.ErrTransfer, err)
	}
	if err = out.Close(); err != nil {
		return err
	}

	if !f.cfg.VerifyChecksums {
		return nil
	}
	want, err := workflow.ParseHash(ref.Checksum)
	if err != nil {
		return xerrors.Errorf("%w: checksum: %v", workflow.ErrTransfer, err)
	}
	if got := common.BytesToHash(hasher.Sum(nil)); got != want {
		return xerrors.Errorf("%w: checksum mismatch: got %s, want %s", workflow.ErrTransfer, workflow.HashHex(got), workflow.HashHex(want))
	}
	return nil
}
