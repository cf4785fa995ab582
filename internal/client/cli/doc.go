// Package cli provides the loandesk command-line client.
//
// It wires configuration, local storage, the session store, the API client
// and the feature services, then either runs a single command (contracts,
// users, dashboard, ...) or an interactive REPL.
//
// Every screen is addressed by a route path ("/contracts/42"). Before a
// screen renders, the route guard checks the session: an anonymous user is
// sent to the login prompt and then back to where they were going, a user
// without the right role is sent home.
//
// While the REPL runs, background jobs keep the cache small, log out expired
// sessions and track whether the API is reachable. See App.Run.
package cli
