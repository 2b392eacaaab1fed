package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-white">
%s
</body>
</html>`

// PrototypeDocument wraps a body fragment in a standalone page with Tailwind loaded.
func PrototypeDocument(markup string) string {
	return fmt.Sprintf(documentTemplate, markup)
}

// Renderer turns a full HTML document into PNG bytes.
type Renderer interface {
	Render(ctx context.Context, document string) ([]byte, error)
}

// ChromeRenderer renders with a headless Chrome per call.
type ChromeRenderer struct {
	ExecPath string
	Timeout  time.Duration
	Width    int64
	Height   int64
	// Settle is how long to wait for the Tailwind script to style the page.
	Settle time.Duration
}

func NewChromeRenderer(execPath string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{
		ExecPath: strings.TrimSpace(execPath),
		Timeout:  timeout,
		Width:    1280,
		Height:   800,
		Settle:   time.Second,
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, document string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var buf []byte
	err := chromedp.Run(taskCtx,
		chromedp.EmulateViewport(r.Width, r.Height, chromedp.EmulateScale(2)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, document).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.Settle),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("render prototype: %w", err)
	}
	return buf, nil
}

// Snapshotter renders prototype markup to PNG and caches results by content hash.
type Snapshotter struct {
	renderer Renderer
	cache    *lru.Cache[string, []byte]
	group    singleflight.Group
}

func NewSnapshotter(renderer Renderer, cacheSize int) (*Snapshotter, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Snapshotter{renderer: renderer, cache: cache}, nil
}

// PNG returns the rendered image of markup. Callers own the returned slice.
func (s *Snapshotter) PNG(ctx context.Context, markup string) ([]byte, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, fmt.Errorf("no prototype to render")
	}
	sum := sha256.Sum256([]byte(markup))
	key := hex.EncodeToString(sum[:])
	if png, ok := s.cache.Get(key); ok {
		return bytes.Clone(png), nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		png, err := s.renderer.Render(ctx, PrototypeDocument(markup))
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, png)
		return png, nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v.([]byte)), nil
}
