// Package admin implements livectl, the operator command line for livedesk.
//
// Commands:
//   - genkey: print a fresh master key for sealing secret configuration
//   - secrets set|get|list|delete: manage secret configuration entries
//   - migrate up|down: apply or roll back database migrations
//
// livectl reads the same configuration as the server (JSON file given with
// --config, then LIVEDESK_* environment variables).
package admin
