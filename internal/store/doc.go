// Package store provides the SQLite-backed propagation journal.
//
// Every task the dispatcher executes can be recorded as one activity row:
//   - Runs: one row per dispatcher session (a CLI run or a scenario)
//   - Activities: seq, kind, owner, status and canonical-JSON detail
//
// # Ordering
//
// Activities are ordered by the dispatcher's logical clock, never by wall
// time. Queries return ORDER BY run_id, seq ASC, id ASC so repeated reads
// of the same journal are byte-identical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Detail payloads are encoded with internal/canonical so that the same
// task always journals the same bytes.
package store
