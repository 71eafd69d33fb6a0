package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	gh "papergallery/internal/github"

	"github.com/google/go-github/v81/github"
)

// MaxDocumentSize is the largest descriptor a reader accepts.
const MaxDocumentSize = 1 << 20

// readLimited reads all of r, failing instead of truncating when it holds
// more than MaxDocumentSize bytes.
func readLimited(r io.Reader, name string) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(body) > MaxDocumentSize {
		return nil, fmt.Errorf("%s: %w: over %d bytes", name, ErrDocumentTooLarge, MaxDocumentSize)
	}
	return body, nil
}

// Reader loads one repository-relative document of a source.
type Reader interface {
	Read(ctx context.Context, sourceID, document string) ([]byte, error)
}

// RawReader downloads documents over plain HTTP GET from the raw file host.
type RawReader struct {
	http    *http.Client
	locator Locator
	budget  *RequestBudget
}

func NewRawReader(client *http.Client, locator Locator, budget *RequestBudget) *RawReader {
	if client == nil {
		client = http.DefaultClient
	}
	return &RawReader{http: client, locator: locator, budget: budget}
}

func (r *RawReader) Read(ctx context.Context, sourceID, document string) ([]byte, error) {
	u := r.locator.FileURL(sourceID, document)
	if err := r.budget.Acquire(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	r.budget.UpdateFromResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxDocumentSize))
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return readLimited(resp.Body, u)
}

// APIReader reads documents through the GitHub contents API. Unlike the raw
// host it reports rate-limit headers, which feed the request budget.
type APIReader struct {
	client *gh.Client
	owner  string
	branch string
	budget *RequestBudget
}

func NewAPIReader(client *gh.Client, owner, branch string, budget *RequestBudget) *APIReader {
	return &APIReader{client: client, owner: owner, branch: branch, budget: budget}
}

func (r *APIReader) Read(ctx context.Context, sourceID, document string) ([]byte, error) {
	if r.client == nil || r.client.Client == nil {
		return nil, errors.New("api reader: nil GitHub client")
	}
	if err := r.budget.Acquire(ctx); err != nil {
		return nil, err
	}

	file, _, resp, err := r.client.Client.Repositories.GetContents(ctx, r.owner, sourceID, document,
		&github.RepositoryContentGetOptions{Ref: r.branch})
	if resp != nil {
		r.budget.UpdateFromResponse(resp.Response)
	}
	if err != nil {
		var er *github.ErrorResponse
		if errors.As(err, &er) && er.Response != nil {
			se := &StatusError{StatusCode: er.Response.StatusCode}
			if er.Response.Request != nil {
				se.URL = er.Response.Request.URL.String()
			}
			return nil, se
		}
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%s/%s: %s is a directory", r.owner, sourceID, document)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode contents: %w", err)
	}
	if len(content) > MaxDocumentSize {
		return nil, fmt.Errorf("%s/%s/%s: %w: over %d bytes", r.owner, sourceID, document, ErrDocumentTooLarge, MaxDocumentSize)
	}
	return []byte(content), nil
}

// LocalReader reads documents from checkouts under a root directory, laid
// out as <root>/<id>/<document>. Used to preview a gallery without pushing.
type LocalReader struct {
	root string
}

func NewLocalReader(root string) *LocalReader {
	return &LocalReader{root: root}
}

func (r *LocalReader) Read(_ context.Context, sourceID, document string) ([]byte, error) {
	path := filepath.Join(r.root, sourceID, filepath.FromSlash(document))
	f, err := os.Open(path) // #nosec G304 - sourceID is validated as a single path segment
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, path)
}
