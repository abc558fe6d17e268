// Package main hosts the bunprodict entrypoint.
//
// Architecture overview:
//   - Scrape: internal/planner reads the level mapping (e.g. {"N5": ["だ", ...]}) and builds one target per
//     grammar point. internal/schedule spreads the targets over a budget with a per-request minimum delay and
//     shuffles the result. internal/scraper walks the plan one step at a time, sleeping before each fetch.
//   - Connections: steps whose delay is under scrape.session_threshold share one Colly collector with keep-alive;
//     slower steps close it and go out on a fresh collector so spaced requests look unrelated.
//   - Storage: internal/storage/local writes <last-path-segment>.html into storage.pages_dir. The directory is
//     the only hand-off between the two pipelines.
//   - Build: internal/extract reads the fields of each stored page, internal/normalize drops placeholder entries
//     and splits compound headwords, internal/termbank writes the sharded term banks and zips them. The archive
//     can be uploaded to GCS when publish.gcs_bucket is set.
//
// Operational notes:
//   - Both pipelines are single-threaded. A 429 ends the scrape; other HTTP failures are logged and skipped.
//   - Unknown part-of-speech labels or JLPT levels abort the build. Run "bunprodict survey" to list labels.
//   - Warnings and errors are appended to logging.error_file; info lines go to stderr. Every line carries run_id.
//   - Set metrics.textfile to leave Prometheus metrics for the node-exporter textfile collector.
package main
