// Package live serves pages built with pkg/view over WebSocket sessions.
//
// Each connection gets its own server-side document and root view. Browser
// events travel to the server as JSON frames, fire through the document's
// delegation registry exactly as a local Trigger would, and the re-rendered
// body travels back for the client to swap in. The server document is the
// single source of truth; the browser DOM is a projection of it.
//
// # Session Lifecycle
//
// A GET on a registered page path returns a plain HTML render with the thin
// client injected. The client then opens /_loom/ws?page=<path>; the server
// builds a fresh document, mounts the page's root view, and answers with a
// hello frame carrying the initial body. From then on the session runs three
// goroutines:
//
//   - ReadLoop: receives frames, decodes them, queues events
//   - EventLoop: dispatches events into the document, pushes body updates
//   - WriteLoop: sends heartbeat pings
//
// Closing the session disposes the root view, which clears its element
// handles and detaches its subtree.
//
// # Event Dispatch
//
// When a client event arrives:
//  1. ReadLoop decodes the JSON event frame
//  2. The frame is queued for the EventLoop
//  3. Registered middleware runs, outermost first
//  4. The target is resolved by child-index path from the body root
//  5. The event fires through dom's delegation registry
//  6. The re-rendered body is sent as an update frame
//
// The EventLoop is the only goroutine that touches the session's document,
// which satisfies the single-goroutine ownership rule of pkg/dom and
// pkg/view. Use Session.Dispatch to reach the document from timers or other
// goroutines.
//
// # Example Usage
//
//	srv := live.New(&live.Config{Address: ":3000"})
//
//	srv.Handle("/", func(ctx context.Context, doc *dom.Document) (*view.View, error) {
//	    counter := 0
//	    v := view.New(doc, view.Definition{
//	        Name:     "counter",
//	        Template: tmpl.FromString("counter", `<p class="count">{{.}}</p><button class="inc">+1</button>`),
//	        Data:     func() (any, error) { return counter, nil },
//	        Events: map[string]view.EventHandler{
//	            "click .inc": func(v *view.View, e *dom.Event) {
//	                counter++
//	                v.Render()
//	            },
//	        },
//	    })
//	    return v, nil
//	})
//
//	srv.Run()
package live
