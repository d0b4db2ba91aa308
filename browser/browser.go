// Package browser drives the video-chat tab through the Chrome DevTools
// Protocol. A Browser owns exactly one tab; every exported operation runs a
// short scripted sequence against it and returns the first hard error.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"host-bot/config"
)

// ErrNotInitialized is returned by every operation before Initialize
// succeeded or after Shutdown.
var ErrNotInitialized = errors.New("browser not initialized")

const (
	loadWait    = 2 * time.Second
	setupPause  = 500 * time.Millisecond
	relayPause  = 100 * time.Millisecond
	reportPause = time.Second
	renavPause  = time.Second
)

// Options configures the tab and the setup sequence run after each load.
type Options struct {
	URL         string
	UserDataDir string
	ExecPath    string
	Headless    bool
	StepTimeout time.Duration

	ClickCheckbox bool
	AutoRelay     bool
	AutoVolume    bool
	VolumeLevel   int
	SkipSequence  []string
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		URL:           cfg.VideoURL,
		UserDataDir:   cfg.UserDataDir,
		ExecPath:      cfg.ExecPath,
		Headless:      cfg.Headless,
		StepTimeout:   cfg.StepTimeout,
		ClickCheckbox: cfg.ClickCheckbox,
		AutoRelay:     cfg.AutoRelay,
		AutoVolume:    cfg.AutoVolume,
		VolumeLevel:   cfg.VolumeLevel,
		SkipSequence:  append([]string(nil), cfg.SkipSequence...),
	}
}

type Browser struct {
	opts Options
	log  *zap.Logger

	mu          sync.Mutex
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func New(opts Options, log *zap.Logger) *Browser {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 10 * time.Second
	}
	return &Browser{opts: opts, log: log}
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("allow-running-insecure-content", true),
		chromedp.Flag("mute-audio", false),
	)
	if b.opts.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(b.opts.UserDataDir))
	}
	if b.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.opts.ExecPath))
	}
	return opts
}

// Initialize launches the browser, opens the target URL and runs the setup
// sequence. Calling it twice is an error.
func (b *Browser) Initialize(ctx context.Context) error {
	b.mu.Lock()
	if b.tab != nil {
		b.mu.Unlock()
		return errors.New("browser already initialized")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), b.allocatorOptions()...)
	sugar := b.log.Sugar()
	tab, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	b.log.Info("Launching browser...")
	// The first Run starts the browser process.
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		b.mu.Unlock()
		return fmt.Errorf("launch browser: %w", err)
	}
	b.tab, b.cancelTab, b.cancelAlloc = tab, cancelTab, cancelAlloc
	b.mu.Unlock()

	b.log.Info("Navigating to target", zap.String("url", b.opts.URL))
	if err := b.navigate(ctx); err != nil {
		return err
	}
	b.setup(ctx)
	b.log.Info("Browser initialized.")
	return nil
}

// Skip sends the configured key sequence to the page. If the tab has left
// the target URL it is brought back first.
func (b *Browser) Skip(ctx context.Context) error {
	var loc string
	if err := b.run(ctx, b.opts.StepTimeout, chromedp.Location(&loc)); err != nil {
		return fmt.Errorf("read location: %w", err)
	}
	if !strings.Contains(loc, b.opts.URL) {
		b.log.Info("Tab left target page, navigating back", zap.String("location", loc))
		if err := b.navigate(ctx); err != nil {
			return err
		}
		b.setup(ctx)
		if err := b.run(ctx, renavPause+time.Second, chromedp.Sleep(renavPause)); err != nil {
			return err
		}
	}

	timeout := b.opts.StepTimeout + time.Duration(len(b.opts.SkipSequence))*keyPause
	if err := b.run(ctx, timeout, skipActions(b.opts.SkipSequence)...); err != nil {
		return fmt.Errorf("send skip sequence: %w", err)
	}
	b.log.Info("Skipped.")
	return nil
}

// Refresh reloads the target URL and runs the setup sequence again.
func (b *Browser) Refresh(ctx context.Context) error {
	b.log.Info("Refreshing...")
	if err := b.navigate(ctx); err != nil {
		return err
	}
	b.setup(ctx)
	return nil
}

// Report flags the current peer. A nil error means the report went through.
func (b *Browser) Report(ctx context.Context) error {
	b.log.Info("Reporting user...")
	err := b.run(ctx, 2*b.opts.StepTimeout+reportPause,
		chromedp.Click(reportButtonXPath, chromedp.BySearch, chromedp.NodeVisible),
		chromedp.Sleep(reportPause),
		chromedp.Click(reportConfirmID, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		return fmt.Errorf("report peer: %w", err)
	}
	return nil
}

// Shutdown closes the tab and the browser process. It is safe to call more
// than once.
func (b *Browser) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tab == nil {
		return
	}
	if err := chromedp.Cancel(b.tab); err != nil {
		b.log.Warn("Error closing browser", zap.Error(err))
	}
	b.cancelTab()
	b.cancelAlloc()
	b.tab, b.cancelTab, b.cancelAlloc = nil, nil, nil
}

func (b *Browser) navigate(ctx context.Context) error {
	if err := b.run(ctx, 3*b.opts.StepTimeout, chromedp.Navigate(b.opts.URL)); err != nil {
		return fmt.Errorf("navigate to %s: %w", b.opts.URL, err)
	}
	return nil
}

// setup runs checkbox clicking, volume and relay. Failures here are logged
// and never abort the caller.
func (b *Browser) setup(ctx context.Context) {
	if b.opts.ClickCheckbox {
		var clicked int
		err := b.run(ctx, loadWait+b.opts.StepTimeout,
			chromedp.Sleep(loadWait),
			chromedp.Evaluate(checkboxScript, &clicked),
		)
		switch {
		case err != nil:
			b.log.Warn("Error clicking checkboxes", zap.Error(err))
		case clicked > 0:
			b.log.Info("Clicked checkboxes", zap.Int("count", clicked))
		}
	}

	if err := b.run(ctx, setupPause+time.Second, chromedp.Sleep(setupPause)); err != nil {
		b.log.Warn("Setup interrupted", zap.Error(err))
		return
	}

	if b.opts.AutoVolume {
		var found bool
		if err := b.run(ctx, b.opts.StepTimeout, chromedp.Evaluate(volumeScript(b.opts.VolumeLevel), &found)); err != nil {
			b.log.Debug("Volume script failed", zap.Error(err))
		} else if !found {
			b.log.Debug("Volume control not found")
		}
	}

	if b.opts.AutoRelay {
		if err := b.typeRelay(ctx); err != nil {
			b.log.Warn("Auto-relay error", zap.Error(err))
		}
	}
}

// typeRelay writes the relay command into the first visible chat box.
func (b *Browser) typeRelay(ctx context.Context) error {
	var target cdp.NodeID
	err := b.run(ctx, b.opts.StepTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, sel := range relaySelectors {
			var nodes []*cdp.Node
			if err := chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)).Do(ctx); err != nil {
				continue
			}
			for _, n := range nodes {
				// Hidden elements have no box model.
				if _, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx); err == nil {
					target = n.NodeID
					return nil
				}
			}
		}
		return nil
	}))
	if err != nil {
		return err
	}
	if target == 0 {
		b.log.Debug("No visible chat box for relay")
		return nil
	}

	ids := []cdp.NodeID{target}
	return b.run(ctx, b.opts.StepTimeout,
		chromedp.SetValue(ids, "", chromedp.ByNodeID),
		chromedp.SendKeys(ids, relayText, chromedp.ByNodeID),
		chromedp.Sleep(relayPause),
		chromedp.SendKeys(ids, kb.Enter, chromedp.ByNodeID),
	)
}

// run executes actions on the tab with a deadline. Cancelling ctx aborts the
// actions but leaves the tab open.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	b.mu.Lock()
	tab := b.tab
	b.mu.Unlock()
	if tab == nil {
		return ErrNotInitialized
	}

	runCtx, cancel := context.WithTimeout(tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}
