// Package observability is the in-process monitoring engine of the pulse
// service: it ingests per-request observations into a time-windowed metrics
// store, consolidates classified errors in a bounded ledger, evaluates alert
// rules with cooldown suppression across delivery channels, and runs
// timeout-bounded health probes per endpoint. Everything is held in memory
// and recomputed on read; nothing here survives a process restart.
package observability
