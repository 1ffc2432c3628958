// Package downloader streams image sources into the image store and aborts
// cleanly when the update lock that owns the transfer is invalidated.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"spaceeye/internal/client"
	"spaceeye/internal/imagestore"
	"spaceeye/internal/logging"
	"spaceeye/internal/satconfig"
	"spaceeye/internal/updatelock"
)

var (
	// ErrRequestCancelled means the transfer was stopped by its cancel token.
	// It is an expected outcome of preemption, not a failure.
	ErrRequestCancelled = errors.New("download cancelled")
	ErrFileMissing      = errors.New("downloaded image does not exist")
)

// ProgressFunc receives -1 when the size is unknown, whole percentages as
// they change, and a final call with done set once the transfer ends.
type ProgressFunc func(percent int, done bool)

type Opener interface {
	Open(ctx context.Context, url string) (*client.Stream, error)
}

type Options struct {
	// Timeout bounds a single download. Zero leaves the lock timeout as the
	// only ceiling.
	Timeout time.Duration
	Logger  *logging.Logger
}

type Downloader struct {
	opener  Opener
	store   *imagestore.Store
	timeout time.Duration
	logger  *logging.Logger
}

func New(opener Opener, store *imagestore.Store, opts Options) *Downloader {
	if opts.Logger == nil {
		panic("downloader.New: logger must not be nil")
	}
	if opener == nil || store == nil {
		panic("downloader.New: opener and store must not be nil")
	}
	return &Downloader{
		opener:  opener,
		store:   store,
		timeout: opts.Timeout,
		logger:  opts.Logger.Scope("downloader"),
	}
}

// Download fetches source into the image store. The transfer is bound to both
// ctx and token; if either ends first the partial file is deleted before
// Download returns ErrRequestCancelled. The token is handed back to lock in
// every case.
func (d *Downloader) Download(ctx context.Context, lock *updatelock.Lock, token *updatelock.CancelToken, source satconfig.ImageSource, progress ProgressFunc) (img imagestore.DownloadedImage, err error) {
	defer lock.DestroyCancelToken(token)
	if progress == nil {
		progress = func(int, bool) {}
	}
	tracker := &progressTracker{report: progress, last: -1}
	defer func() { tracker.finish(err == nil) }()

	transferCtx, cancel := context.WithCancel(token.Context())
	defer cancel()
	defer context.AfterFunc(ctx, cancel)()
	if d.timeout > 0 {
		transferCtx, cancel = context.WithTimeout(transferCtx, d.timeout)
		defer cancel()
	}

	d.logger.Info("downloading image", logging.Field("image_id", source.ID), logging.Field("url", source.URL))
	stream, err := d.opener.Open(transferCtx, source.URL)
	if err != nil {
		return imagestore.DownloadedImage{}, d.classify(ctx, token, err)
	}
	defer stream.Close()

	img = d.store.NewImage(source.ID, extensionFor(stream.ContentType, source.URL))
	partial := d.store.PartialPath(img)
	d.store.BeginPartial(partial)
	defer d.store.EndPartial(partial)

	tracker.start(stream.ContentLength)
	if err := writeStream(partial, stream.Body, tracker); err != nil {
		removePartial(partial)
		return imagestore.DownloadedImage{}, d.classify(ctx, token, err)
	}
	if token.Cancelled() || ctx.Err() != nil {
		removePartial(partial)
		return imagestore.DownloadedImage{}, d.classify(ctx, token, context.Canceled)
	}

	final := d.store.Path(img)
	if err := os.Rename(partial, final); err != nil {
		removePartial(partial)
		if errors.Is(err, fs.ErrNotExist) {
			return imagestore.DownloadedImage{}, fmt.Errorf("%w: %s", ErrFileMissing, partial)
		}
		return imagestore.DownloadedImage{}, fmt.Errorf("finalize download: %w", err)
	}
	if _, err := os.Stat(final); err != nil {
		return imagestore.DownloadedImage{}, fmt.Errorf("%w: %s", ErrFileMissing, final)
	}
	d.logger.Info("image downloaded",
		logging.Field("image_id", source.ID),
		logging.Field("path", final),
		logging.Field("bytes", tracker.written),
	)
	return img, nil
}

func (d *Downloader) classify(ctx context.Context, token *updatelock.CancelToken, err error) error {
	if token.Cancelled() || ctx.Err() != nil {
		d.logger.Info("download cancelled", logging.Field("cause", context.Cause(token.Context())))
		return ErrRequestCancelled
	}
	return fmt.Errorf("download image: %w", err)
}

func writeStream(dest string, body io.Reader, tracker *progressTracker) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(f, io.TeeReader(body, tracker))
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

func removePartial(path string) {
	_ = os.Remove(path)
}

func extensionFor(contentType, rawURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/png":
			return "png"
		case "image/jpeg", "image/jpg", "image/pjpeg":
			return "jpg"
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".png":
			return "png"
		case ".jpg", ".jpeg":
			return "jpg"
		}
	}
	return "jpg"
}
