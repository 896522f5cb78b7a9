package render

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// WindowViewer shows each figure in a desktop window and blocks until the
// user dismisses it by closing the window or pressing Enter or Space.
//
// The fyne app must be running (App.Run on the main goroutine) while Show is
// called from another goroutine. One window is reused for every figure; a
// close request hides it so the app keeps running between figures.
type WindowViewer struct {
	app   fyne.App
	title string

	win fyne.Window // touched only on the fyne goroutine

	mu   sync.Mutex
	done chan struct{}
}

// NewWindowViewer creates a viewer whose window belongs to a.
func NewWindowViewer(a fyne.App, title string) *WindowViewer {
	return &WindowViewer{app: a, title: title}
}

// Show renders fig, displays it and waits for it to be dismissed.
func (v *WindowViewer) Show(ctx context.Context, fig *Figure, o Options) error {
	c, err := fig.Render(o)
	if err != nil {
		return err
	}
	img := canvas.NewImageFromImage(c.Image())
	img.FillMode = canvas.ImageFillOriginal
	w, h := fig.Size(o)
	title := v.title
	if len(fig.Panels) > 0 && fig.Panels[0].Title != "" {
		title = fig.Panels[0].Title
	}

	done := make(chan struct{})
	fyne.DoAndWait(func() {
		win := v.window()
		win.SetTitle(title)
		win.SetContent(img)
		win.Resize(fyne.NewSize(float32(w), float32(h)))
		win.Show()
		win.RequestFocus()
		v.mu.Lock()
		v.done = done
		v.mu.Unlock()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// the event loop may already be gone, so do not wait on it
		v.release()
		fyne.Do(func() {
			if v.win != nil {
				v.win.Hide()
			}
		})
		return ctx.Err()
	}
}

// window returns the shared window, creating it on first use.
func (v *WindowViewer) window() fyne.Window {
	if v.win != nil {
		return v.win
	}
	win := v.app.NewWindow(v.title)
	win.SetCloseIntercept(v.dismiss)
	win.SetOnClosed(func() {
		// closed for real, e.g. on app quit
		v.release()
		v.win = nil
	})
	win.Canvas().SetOnTypedKey(func(k *fyne.KeyEvent) {
		switch k.Name {
		case fyne.KeyReturn, fyne.KeyEnter, fyne.KeySpace:
			v.dismiss()
		}
	})
	v.win = win
	return win
}

// dismiss hides the window and releases the waiting Show.
func (v *WindowViewer) dismiss() {
	if v.win != nil {
		v.win.Hide()
	}
	v.release()
}

func (v *WindowViewer) release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done != nil {
		close(v.done)
		v.done = nil
	}
}

func (v *WindowViewer) waiting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.done != nil
}
