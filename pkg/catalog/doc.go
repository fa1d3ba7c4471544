// Package catalog implements a music-catalog backend: album, artist
// and region management plus the cover lifecycle that keeps binary
// cover images in an external object store while their metadata lives
// in a relational store.
//
// The two stores share no transaction. Consistency comes from fixed
// ordering (blob before metadata on both write and delete) plus a
// compensating blob delete when a metadata insert fails, so partial
// failure leaves at worst an orphaned blob. The "at most one primary
// cover per album" invariant is protected by a per-album lock in the
// service and, on PostgreSQL, by expressing the primary swap as a
// single conditional UPDATE.
//
// Change notifications go through a Notifier that buffers events per
// unit of work and releases them only after the transaction commits.
package catalog
