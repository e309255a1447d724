/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	// Register decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// Image is a decoded raster ready to be placed on a page.
type Image struct {
	Name   string
	Type   string
	Data   []byte
	Width  int
	Height int
}

// AspectRatio returns height over width, or 0 when unknown.
func (img *Image) AspectRatio() float64 {
	if img == nil || img.Width == 0 {
		return 0
	}
	return float64(img.Height) / float64(img.Width)
}

// Fit scales the image into a w by h box keeping its proportions. Without
// known dimensions the box is returned unchanged.
func (img *Image) Fit(w, h float64) (float64, float64) {
	ratio := img.AspectRatio()
	if ratio == 0 {
		return w, h
	}
	if w*ratio <= h {
		return w, w * ratio
	}
	return h / ratio, h
}

var gofpdfImageTypes = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/gif":  "GIF",
}

// NewImage sniffs and validates raster bytes. Only PNG, JPEG and GIF are
// accepted.
func NewImage(name string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	mime := mimetype.Detect(data)

	imageType, ok := gofpdfImageTypes[mime.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return &Image{
		Name:   name,
		Type:   imageType,
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Assets are the images a report places on its pages. Any of them may be
// nil, in which case the page is drawn without it.
type Assets struct {
	Letterhead     *Image
	Cover          *Image
	Stamp          *Image
	SecondaryStamp *Image
}

// AssetSources names where each asset comes from: an http(s) URL or a
// local file path. Empty sources are skipped.
type AssetSources struct {
	Letterhead     string
	Cover          string
	Stamp          string
	SecondaryStamp string
}

// Fetcher loads report assets before layout starts.
type Fetcher struct {
	client   *resty.Client
	readFile func(string) ([]byte, error)
}

// NewFetcher returns a Fetcher with a bounded HTTP timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:   resty.New().SetTimeout(timeout),
		readFile: os.ReadFile,
	}
}

// Fetch loads and validates one asset.
func (f *Fetcher) Fetch(ctx context.Context, name, source string) (*Image, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptyImage
	}

	var (
		data []byte
		err  error
	)

	if isRemote(source) {
		data, err = f.download(ctx, source)
	} else {
		data, err = f.readFile(source)
	}
	if err != nil {
		return nil, err
	}

	return NewImage(name, data)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrAssetUnavailable, url, resp.Status())
	}

	return resp.Body(), nil
}

// FetchAll loads every configured asset one after another. A failed asset
// is logged and left nil; it never fails the batch.
func (f *Fetcher) FetchAll(ctx context.Context, sources AssetSources) Assets {
	var assets Assets

	slots := []struct {
		name   string
		source string
		dst    **Image
	}{
		{"letterhead", sources.Letterhead, &assets.Letterhead},
		{"cover", sources.Cover, &assets.Cover},
		{"stamp", sources.Stamp, &assets.Stamp},
		{"stamp-secondary", sources.SecondaryStamp, &assets.SecondaryStamp},
	}

	for _, slot := range slots {
		if strings.TrimSpace(slot.source) == "" {
			continue
		}

		img, err := f.Fetch(ctx, slot.name, slot.source)
		if err != nil {
			assetLogger.Warn("Failed to load report asset", "asset", slot.name, "source", slot.source, "error", err)
			continue
		}

		assetLogger.Debug("Loaded report asset", "asset", slot.name, "type", img.Type, "bytes", len(img.Data))
		*slot.dst = img
	}

	return assets
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
