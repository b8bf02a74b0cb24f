/*
Package applog wraps zerolog with the conventions the sync daemon's other
packages rely on: a process-wide Logger initialized once via Init, and a
small set of With* helpers that attach correlation fields (component name,
tick id, article id) without every caller hand-rolling the same
zerolog.Context chain.

Output is JSON when Config.JSONOutput is set and a human-readable
console writer otherwise, matching whichever the deployment's log
aggregator expects.
*/
package applog
