// Command descant is the CLI for the descant audio description service. It
// talks to a running descantd over HTTP and can also run the daemon in the
// foreground with `descant serve`.
package main
