// Package main is the entry point for the xpipe-browser binary.
//
// xpipe-browser is a full-screen terminal browser over the connections known
// to a locally running XPipe daemon. It performs a one-time API handshake,
// fetches the connection catalogue, and lets the user navigate, fuzzy-filter,
// and open terminal sessions against the selected targets by delegating to
// the daemon's own terminal-launch endpoint.
//
// Usage:
//
//	XPIPE_API_KEY=... xpipe-browser
//
// There are no subcommands or flags; quit with q. The API key may also come
// from a .env file in the working directory. Diagnostics go to stderr and to
// an events journal under the config directory, never to the rendered view.
package main

import (
	"fmt"
	"os"

	"xpipe-browser/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
