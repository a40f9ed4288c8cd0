// Package thumbnail implements the content-addressed preview cache and the
// worker pipeline that fills it.
//
// A Key fingerprints a source image by absolute path, modification time,
// size and target dimensions; its SHA-256 digest names a PNG file in the
// cache directory. Lookups are a single stat. Misses go to a Pipeline, which
// coalesces duplicate requests on the UI loop, renders on a small worker
// pool, and posts each completion back to the UI loop where waiters are
// notified in registration order.
package thumbnail
