package scraper

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
)

// humanlikeScroll scrolls down in half-viewport steps until the bottom is
// reached, pausing briefly between steps so lazy content gets triggered.
func humanlikeScroll(ctx context.Context, page *rod.Page) error {
	for i := 0; i < 10; i++ {
		atBottom, err := page.Eval(`() => window.innerHeight + window.pageYOffset >= document.body.scrollHeight - 10`)
		if err != nil {
			return err
		}
		if atBottom.Value.Bool() {
			break
		}
		if _, err := page.Eval(`() => window.scrollBy(0, window.innerHeight * 0.5)`); err != nil {
			return err
		}
		if err := sleepCtx(ctx, time.Duration(100+rand.Intn(150))*time.Millisecond); err != nil {
			return err
		}
	}

	// Wiggle at the bottom so scroll observers fire once more.
	_, _ = page.Eval(`() => window.scrollBy(0, -200)`)
	if err := sleepCtx(ctx, 200*time.Millisecond); err != nil {
		return err
	}
	_, _ = page.Eval(`() => window.scrollBy(0, 400)`)
	return nil
}
