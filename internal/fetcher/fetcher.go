// Package fetcher retrieves and validates the two metadata documents every
// gallery source publishes.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Metadata is everything the card renderer needs about one source.
type Metadata struct {
	SourceID string
	Project  ProjectDescriptor
	Gallery  GalleryDescriptor
}

type Fetcher struct {
	reader  Reader
	group   Group
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Fetcher)

// WithTimeout bounds the whole fetch of one source (both documents). Expiry
// surfaces as a KindNetwork error.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFetcher(reader Reader, opts ...Option) *Fetcher {
	f := &Fetcher{reader: reader, logger: zap.NewNop()}
	for _, apply := range opts {
		if apply != nil {
			apply(f)
		}
	}
	return f
}

// Fetch reads both documents of sourceID and validates their required
// fields. Every failure is a *FetchError; there are no retries.
func (f *Fetcher) Fetch(ctx context.Context, sourceID string) (*Metadata, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Fetch: nil context")
	}
	if f == nil {
		return nil, fmt.Errorf("Fetch: nil Fetcher")
	}
	if f.reader == nil {
		return nil, fmt.Errorf("Fetch: nil reader (use NewFetcher)")
	}
	if err := ValidateSourceID(sourceID); err != nil {
		return nil, &FetchError{Kind: KindInvalidSource, Source: sourceID, Err: err}
	}

	md, err, _ := f.group.Do(sourceID, func() (*Metadata, error) {
		return f.doFetch(ctx, sourceID)
	})
	return md, err
}

func (f *Fetcher) doFetch(ctx context.Context, sourceID string) (*Metadata, error) {
	f.logger.Info("fetching source", zap.String("source", sourceID))

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var projectRaw, galleryRaw []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projectRaw, err = f.read(gctx, sourceID, ProjectDocument)
		return err
	})
	g.Go(func() (err error) {
		galleryRaw, err = f.read(gctx, sourceID, GalleryDocument)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	project, err := ParseProject(projectRaw)
	if err != nil {
		return nil, annotate(err, sourceID, ProjectDocument)
	}
	gallery, err := ParseGallery(galleryRaw)
	if err != nil {
		return nil, annotate(err, sourceID, GalleryDocument)
	}

	return &Metadata{SourceID: sourceID, Project: project, Gallery: gallery}, nil
}

func (f *Fetcher) read(ctx context.Context, sourceID, document string) ([]byte, error) {
	b, err := f.reader.Read(ctx, sourceID, document)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Source: sourceID, Document: document, Err: err}
	}
	return b, nil
}

// annotate stamps the source and document onto a parse-level FetchError.
func annotate(err error, sourceID, document string) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		fe.Source = sourceID
		fe.Document = document
		return fe
	}
	return &FetchError{Kind: KindParse, Source: sourceID, Document: document, Err: err}
}
