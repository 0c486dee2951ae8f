// Package dom provides the server-side document engine backing loom views.
//
// A Document owns a parsed HTML tree plus the event registry for every node
// in it. Selections are lightweight handles over one or more nodes and carry
// both the query surface (Find, Is, Attr, Text) and the mutation surface
// (SetHTML, Append, ReplaceWith, Remove). All querying is CSS-selector based
// via goquery; mutation operates directly on the underlying x/net/html nodes.
//
// # Ownership and Concurrency
//
// A Document and every Selection derived from it belong to a single
// goroutine. Nothing in this package locks. The live runtime serializes all
// document access through a session event loop; tests and one-shot rendering
// simply stay on one goroutine.
//
// # Event Semantics
//
// Bindings follow the delegation model of browser-side DOM libraries:
//
//   - On("click", "", fn) binds directly to the selected nodes.
//   - On("click", ".item", fn) delegates: fn fires when an event bubbles
//     through the selected node from a descendant matching ".item".
//   - Event names may carry a namespace ("click.v3") so that one owner's
//     bindings can be removed without touching anyone else's.
//
// Destructive mutations sever bindings: removing a node, replacing it, or
// swapping an ancestor's contents drops the registry entries of every node
// that left the tree. Re-inserting such a node does not restore them; the
// owner must bind again. Moving a node with Append or Before keeps its
// bindings, matching the detach-versus-remove distinction of jQuery.
package dom
