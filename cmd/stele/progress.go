package main

import (
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// imageBar renders a progress bar for the image stage. The bar is
// created on the first update so runs without images never print one.
type imageBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newImageBar() *imageBar {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(os.Stdout),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &imageBar{p: p}
}

func (b *imageBar) update(finished, total int) {
	if b.bar == nil {
		b.bar = b.p.New(
			int64(total),
			mpb.BarStyle().Rbound("]"),
			mpb.PrependDecorators(
				decor.Name("images  "),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncWidth),
				decor.CountersNoUnit(" | %d/%d", decor.WCSyncWidth),
			),
		)
	}

	b.bar.SetCurrent(int64(finished))
	if finished >= total {
		b.bar.SetTotal(int64(total), true)
	}
}

func (b *imageBar) wait() {
	b.p.Wait()
}
