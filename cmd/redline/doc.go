// Command redline runs the review workflow engine daemon and its companion
// administrative subcommands.
package main
