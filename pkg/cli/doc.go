// Package cli implements the cobra command tree for shaarpecctl, including
// subcommands for authentication, resource fetches, running analytics tasks,
// configuration management, and shell completion.
package cli
