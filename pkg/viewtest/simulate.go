package viewtest

import (
	"errors"
	"testing"

	"github.com/loom-ui/loom/pkg/view"
)

// Fire triggers an event on the first node matching selector inside the
// view's root, with an optional payload. The event bubbles, so delegated
// handlers on the root fire the way they would for a real browser event.
// An empty selector targets the root itself.
//
// Example:
//
//	viewtest.Fire(t, v, "input", ".title", map[string]any{"value": "Draft"})
func Fire(tb testing.TB, v *view.View, event, selector string, data map[string]any) {
	tb.Helper()
	target := v.Root()
	if selector != "" {
		found := v.Root().Find(selector)
		if found.Length() == 0 {
			tb.Fatalf("no element matches %q inside view %s", selector, v.Name())
		}
		target = found.Eq(0)
	}
	target.TriggerData(event, data)
}

// Click is Fire with a "click" event and no payload.
//
// Example:
//
//	viewtest.Click(t, v, ".save")
func Click(tb testing.TB, v *view.View, selector string) {
	tb.Helper()
	Fire(tb, v, "click", selector, nil)
}

// ExpectDisposed asserts that the view reached its terminal state and that
// lifecycle operations now fail with ErrDisposed.
func ExpectDisposed(t *testing.T, v *view.View) {
	t.Helper()
	if got := v.State(); got != view.StateDisposed {
		t.Errorf("view state = %v, want %v", got, view.StateDisposed)
	}
	if err := v.Render(); !errors.Is(err, view.ErrDisposed) {
		t.Errorf("Render() after dispose = %v, want ErrDisposed", err)
	}
}
