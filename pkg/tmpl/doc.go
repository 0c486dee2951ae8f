// Package tmpl resolves view markup from producer functions.
//
// A view declares two producers: a SourceFunc yielding a compiled
// html/template and a DataFunc yielding the value it executes against.
// Resolve invokes both fresh on every call and returns the markup; nothing
// at this layer caches resolved output, so producers always see current
// state. Producers themselves may cache whatever they like, which is what
// the template stores in this package do with compiled templates.
//
// Stores load named templates from a backing source: MemStore for in-memory
// registration, DirStore for a directory on disk, S3Store for an S3 bucket.
package tmpl
