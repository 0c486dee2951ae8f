// Package view implements composable server-side views over a dom.Document.
//
// A View owns one root element and everything rendered beneath it. Views are
// declared with a Definition: the root tag and attributes, named element
// handles, delegated event handlers, and the producer functions that yield
// the view's template and data. Producers are invoked fresh on every render,
// so a view never caches markup or data between renders.
//
// # Lifecycle
//
// Every view moves through three states:
//
//	unrendered -> rendered -> disposed
//
// A view is unrendered from construction until its first successful render,
// rendered from then on no matter how many times it re-renders, and disposed
// once Dispose is called. Disposal is terminal: render, attach, refresh and
// dispose all fail with a *LifecycleError afterwards.
//
// # Render Pipeline
//
// Render runs a fixed sequence:
//
//  1. The BeforeRender hook, when declared.
//  2. Markup production: the template producer and data producer are invoked
//     and the result replaces the root's entire subtree. A view without a
//     template producer skips this step and keeps its current contents. A
//     Definition.Render function replaces this step with arbitrary DOM
//     construction and takes over cache refresh itself.
//  3. The element cache rebuild (default markup step only).
//  4. The AfterRender hook, when declared.
//
// Hook and producer failures abort the sequence and propagate to the caller
// unmodified; no fallback markup is ever swapped in.
//
// # Attachment
//
// AppendTo, PrependTo and Replace insert the root element into the document
// first, re-establish event delegation, and only then render. Ordering
// matters: producers running during an attach-triggered render see the root
// connected to the document, so they can inspect the surrounding tree. A
// target that matches nothing is not an error; the view renders detached
// and can be attached later.
//
// # Element Handles
//
// Definition.Elements maps handle names to selectors. After every default
// render the selectors are re-resolved against the new subtree, so a handle
// never points at nodes from a previous render. A selector matching nothing
// yields an empty selection under its name; names themselves are opaque,
// and a leading "$" is nothing but a naming convention for handle fields.
//
// # Example
//
//	profile := view.New(doc, view.Definition{
//	    Tag:      "section",
//	    Attrs:    map[string]string{"class": "profile"},
//	    Template: tmpl.FromString("profile", `<p class="msg">Hello {{.name}}</p>`),
//	    Data: func() (any, error) {
//	        return map[string]any{"name": "Matt"}, nil
//	    },
//	    Elements: map[string]string{"$msg": ".msg"},
//	    Events: map[string]view.EventHandler{
//	        "click .msg": func(v *view.View, e *dom.Event) {
//	            v.Element("$msg").SetText("clicked")
//	        },
//	    },
//	})
//
//	if err := profile.AppendTo("body"); err != nil {
//	    return err
//	}
//	profile.Element("$msg").Text() // "Hello Matt"
//
// # Concurrency
//
// Views inherit the document's single-goroutine model: all operations are
// synchronous and nothing locks. Nested renders triggered from hooks run
// depth-first and complete before the outer call returns.
package view
