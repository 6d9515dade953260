package browser

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-research-agent/internal/config"
)

// Session owns the playwright browser resources for exactly one research
// run. It is acquired at run start and must be released on every exit path;
// after a wall-clock timeout the session may be mid-action and is not
// reusable, only releasable.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	log     *zap.Logger
}

// NewSession starts playwright, launches Chromium and opens one page sized
// to the configured viewport.
func NewSession(cfg config.BrowserConfig, log *zap.Logger) (*Session, error) {
	if err := playwright.Install(); err != nil {
		return nil, fmt.Errorf("install playwright driver: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	s := &Session{pw: pw, log: log}

	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s.context, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: cfg.Width, Height: cfg.Height},
		UserAgent: playwright.String(cfg.UserAgent),
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create context: %w", err)
	}

	s.page, err = s.context.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page.SetDefaultTimeout(10000)

	return s, nil
}

// Page exposes the session's single page handle.
func (s *Session) Page() playwright.Page {
	if s == nil {
		return nil
	}
	return s.page
}

// Close releases page, context, browser and driver in that order. A failing
// step is logged and the chain continues: a stuck page must never leak the
// browser process underneath it.
func (s *Session) Close() error {
	steps := []releaseStep{
		{"page", func() error {
			if s.page == nil {
				return nil
			}
			err := s.page.Close()
			s.page = nil
			return err
		}},
		{"context", func() error {
			if s.context == nil {
				return nil
			}
			err := s.context.Close()
			s.context = nil
			return err
		}},
		{"browser", func() error {
			if s.browser == nil {
				return nil
			}
			err := s.browser.Close()
			s.browser = nil
			return err
		}},
		{"driver", func() error {
			if s.pw == nil {
				return nil
			}
			err := s.pw.Stop()
			s.pw = nil
			return err
		}},
	}
	return releaseAll(s.log, steps)
}

type releaseStep struct {
	name string
	fn   func() error
}

// releaseAll runs every step regardless of earlier failures and joins the
// errors it collected.
func releaseAll(log *zap.Logger, steps []releaseStep) error {
	var errs []error
	for _, step := range steps {
		if err := step.fn(); err != nil {
			log.Warn("release step failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("release %s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}
