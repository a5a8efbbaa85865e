// Package cli provides the interactive CashbackHub terminal client.
//
// NewApp wires configuration, the local database, the token store, the API
// client and the session. App.Run shows the page remembered from the last
// run, restores the session from stored credentials and blocks in a REPL.
//
// Pages are addressed by path (see package routes). Every page change and
// every session change goes through the route guard, so signing out on a
// dashboard lands on the login page and signing in on the login page lands
// on the role's dashboard.
//
// A background watcher pings the backend and shows online/offline in the
// prompt.
package cli
