// Package query is a keyed, in-memory read cache for remote API calls.
//
// Every read is identified by a Key (an ordered tuple such as
// ["contracts", 1, 10, ""]). The cache guarantees at most one in-flight fetch
// per key, serves fresh data without a round-trip, serves stale data while it
// revalidates in the background, and retries failed fetches with exponential
// backoff. Entries nobody has used for Options.GCTime are dropped by Collect.
//
// Fetch blocks until data is available; Peek never blocks and is meant for
// render loops that redraw as results arrive.
package query
