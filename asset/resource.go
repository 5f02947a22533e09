package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// The default upper bound for a render module binary.
const MaxModuleSize = 64 << 20

var (
	ErrEmptyModule = errors.New("resource: module is empty")
)

// The Resource class wraps a streamable file or remote Resource.
type Resource struct {
	io.ReadCloser
	url *url.URL

	// Expected size in bytes or -1 if unknown.
	size int64
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Returns the advertised size of the resource or -1 if it is not known
// before reading.
func (r *Resource) Size() int64 {
	return r.size
}

// Create a new Resource data stream. The special path "-" streams from
// standard input.
//
// This function can handle http/https URLs by delegating to the net/http package.
// The caller must make sure to close the returned io.ReadCloser to prevent mem leaks.
func NewResource(ctx context.Context, pathToResource string) (*Resource, error) {
	if pathToResource == "-" {
		return NewResourceFromStream("stdin", os.Stdin), nil
	}

	// Replace forward slashes with backslaces and try parsing as a URL
	url, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	var (
		reader io.ReadCloser
		size   int64 = -1
	)
	switch url.Scheme {
	case "":
		f, err := os.Open(filepath.Clean(url.Path))
		if err != nil {
			return nil, err
		}
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		reader = f
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", url.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", url.String(), resp.StatusCode)
		}
		reader = resp.Body
		size = resp.ContentLength
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", url.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        url,
		size:       size,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	url, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        url,
		size:       -1,
	}
}

// ReadAll reads the resource contents, failing if they exceed maxSize bytes.
// A non-positive maxSize selects MaxModuleSize.
func (r *Resource) ReadAll(maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxModuleSize
	}
	if r.size > maxSize {
		return nil, fmt.Errorf("resource: '%s' is %d bytes; limit is %d", r.Path(), r.size, maxSize)
	}

	// Read one extra byte to detect oversized streams of unknown length
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("resource: could not read '%s': %s", r.Path(), err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("resource: '%s' exceeds the %d byte limit", r.Path(), maxSize)
	}

	return data, nil
}

// LoadModule fetches a render module binary from a local path, an http(s) URL
// or standard input.
func LoadModule(ctx context.Context, pathToModule string, maxSize int64) ([]byte, error) {
	res, err := NewResource(ctx, pathToModule)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	data, err := res.ReadAll(maxSize)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyModule
	}
	return data, nil
}
