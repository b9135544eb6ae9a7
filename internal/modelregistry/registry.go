// Package modelregistry resolves symbolic model names to local artifact
// paths, downloading the backing files on first use.
//
// The pattern generalizes a typical embedded-model loader from "always
// embedded" to "download on demand, cache the resolved path, collapse
// concurrent requests for the same name."
package modelregistry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tphakala/dictea-go/internal/errors"
	"github.com/tphakala/dictea-go/internal/httpclient"
)

// ModelInfo describes a known model artifact.
type ModelInfo struct {
	ID             string // symbolic name, e.g. "medium"
	RepoID         string // remote repository identifier
	SizeLabel      string // human-readable approximate size, e.g. "1.5 GB"
	NumSpecies     int    // non-zero only for classification-style models; 0 for ASR
	MinMemoryBytes uint64 // rough resident-set requirement for inference at this size
}

const mib = 1024 * 1024

// knownModels is the built-in table of ASR model names to repository
// identifiers. Deployments may add locale-specialized entries by
// registering additional ModelInfo values via Register.
var knownModels = map[string]ModelInfo{
	"tiny":     {ID: "tiny", RepoID: "Systran/faster-whisper-tiny", SizeLabel: "75 MB", MinMemoryBytes: 300 * mib},
	"base":     {ID: "base", RepoID: "Systran/faster-whisper-base", SizeLabel: "150 MB", MinMemoryBytes: 500 * mib},
	"small":    {ID: "small", RepoID: "Systran/faster-whisper-small", SizeLabel: "500 MB", MinMemoryBytes: 1200 * mib},
	"medium":   {ID: "medium", RepoID: "Systran/faster-whisper-medium", SizeLabel: "1.5 GB", MinMemoryBytes: 2500 * mib},
	"large-v2": {ID: "large-v2", RepoID: "Systran/faster-whisper-large-v2", SizeLabel: "3 GB", MinMemoryBytes: 5000 * mib},
	"large-v3": {ID: "large-v3", RepoID: "Systran/faster-whisper-large-v3", SizeLabel: "3 GB", MinMemoryBytes: 5000 * mib},
	"diarizer": {ID: "diarizer", RepoID: "tphakala/dictea-sortformer", SizeLabel: "500 MB", MinMemoryBytes: 1500 * mib},
}

// Register adds or overrides a model entry, for locale-specialized or
// custom deployments.
func Register(info ModelInfo) {
	knownModels[info.ID] = info
}

// Lookup returns the known model info for a symbolic name.
func Lookup(name string) (ModelInfo, bool) {
	info, ok := knownModels[name]
	return info, ok
}

// Sizes returns the approximate download size label for every known model,
// keyed by symbolic name.
func Sizes() map[string]string {
	sizes := make(map[string]string, len(knownModels))
	for name, info := range knownModels {
		sizes[name] = info.SizeLabel
	}
	return sizes
}

// ProgressFunc reports download progress as a human-readable message and a
// percentage in [0, 100].
type ProgressFunc func(message string, percent float64)

// Registry resolves model names to local artifact paths, downloading
// missing artifacts from a configured base URL.
type Registry struct {
	modelsDir string
	baseURL   string
	client    *httpclient.Client
	pathCache *cache.Cache
	group     singleflight.Group
}

// New creates a Registry rooted at modelsDir. baseURL is the root of the
// artifact host; a model's file is fetched from baseURL/<RepoID>/model.bin.
func New(modelsDir, baseURL string) *Registry {
	return &Registry{
		modelsDir: modelsDir,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    httpclient.New(nil),
		pathCache: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// localPath returns the expected on-disk path for a model:
// <models>/whisper/<name>/model.bin.
func (r *Registry) localPath(name string) string {
	return filepath.Join(r.modelsDir, "whisper", name, "model.bin")
}

// Ensure resolves name to a local artifact path, downloading it if absent.
// Concurrent Ensure calls for the same name collapse into a single download.
func (r *Registry) Ensure(ctx context.Context, name string, progress ProgressFunc) (string, error) {
	if cached, ok := r.pathCache.Get(name); ok {
		return cached.(string), nil
	}

	path, err, _ := r.group.Do(name, func() (interface{}, error) {
		return r.ensureLocked(ctx, name, progress)
	})
	if err != nil {
		return "", err
	}

	resolved := path.(string)
	r.pathCache.Set(name, resolved, cache.DefaultExpiration)
	return resolved, nil
}

func (r *Registry) ensureLocked(ctx context.Context, name string, progress ProgressFunc) (string, error) {
	info, ok := Lookup(name)
	if !ok {
		return "", errors.ModelNotFound(name)
	}

	dest := r.localPath(name)
	if _, err := os.Stat(dest); err == nil {
		if progress != nil {
			progress(fmt.Sprintf("model %s ready", name), 100)
		}
		return dest, nil
	}

	if progress != nil {
		progress(fmt.Sprintf("downloading %s...", name), 0)
	}

	if err := r.download(ctx, info, dest, progress); err != nil {
		return "", errors.ModelDownload(name, err.Error())
	}

	if progress != nil {
		progress(fmt.Sprintf("model %s ready", name), 100)
	}
	return dest, nil
}

// download fetches the model's manifest (a small JSON file listing the
// artifact's canonical URL and size) and then streams the artifact itself
// into a temp file before an atomic rename into place.
func (r *Registry) download(ctx context.Context, info ModelInfo, dest string, progress ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	manifestURL := fmt.Sprintf("%s/%s/manifest.json", r.baseURL, info.RepoID)
	artifactURL, err := r.resolveArtifactURL(ctx, manifestURL, info)
	if err != nil {
		return err
	}

	resp, err := r.client.Get(ctx, artifactURL)
	if err != nil {
		return fmt.Errorf("fetching artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("artifact host returned status %d", resp.StatusCode)
	}

	tempPath := dest + ".download-" + uuid.NewString()
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp download file: %w", err)
	}
	defer os.Remove(tempPath) // no-op once renamed

	if err := r.copyWithProgress(ctx, tempFile, resp.Body, resp.ContentLength, progress); err != nil {
		tempFile.Close()
		return fmt.Errorf("streaming artifact: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("closing temp download file: %w", err)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		return fmt.Errorf("finalizing download: %w", err)
	}
	return nil
}

// resolveArtifactURL parses the manifest JSON document for the artifact's
// download URL, falling back to a conventional path if the manifest has no
// "url" field.
func (r *Registry) resolveArtifactURL(ctx context.Context, manifestURL string, info ModelInfo) (string, error) {
	fallback := fmt.Sprintf("%s/%s/model.bin", r.baseURL, info.RepoID)

	resp, err := r.client.Get(ctx, manifestURL)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		return fallback, nil
	}
	defer resp.Body.Close()

	v, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return fallback, nil
	}
	if url, err := v.GetString("url"); err == nil && url != "" {
		return url, nil
	}
	return fallback, nil
}

func (r *Registry) copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) error {
	buf := make([]byte, 256*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if progress != nil && total > 0 {
				progress(fmt.Sprintf("downloading... %d/%d bytes", written, total), float64(written)/float64(total)*100)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// CleanupTempDownloads removes any stale *.download-* temp files left behind
// by interrupted downloads under modelsDir.
func (r *Registry) CleanupTempDownloads() error {
	return filepath.WalkDir(r.modelsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(d.Name(), ".download-") {
			if rmErr := os.Remove(path); rmErr != nil {
				return rmErr
			}
		}
		return nil
	})
}
