// Package pipeline runs audit steps in sequence for one target and
// fans targets out concurrently for a batch.
//
// A Job carries one target through the steps: load reads the document,
// audit runs the rule engine, store writes the report to the history
// database and recommend attaches a design recommendation. Standard
// assembles that sequence from Settings; steps that have no backing
// component (no store, no generator) are left out.
//
// Design decision: We use a pipeline of Step values instead of direct
// function calls because:
// 1. Steps can be added or left out per command without touching the core
// 2. Error handling, cancellation and logging stay in one place
//
// BatchProcessor runs a fresh pipeline per job with errgroup and a
// concurrency limit. A failure stays in its job and never cancels the rest.
package pipeline
