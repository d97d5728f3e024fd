// Package observability records task lifecycle events to an append-only
// JSONL log and derives metrics and alerts from that log together with the
// current task collection.
package observability
