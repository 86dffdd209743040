// Package bootstrap runs the version-gated data repair routines executed at
// startup before normal traffic is accepted. Routines compare the persisted
// schema snapshot with the loaded registry and fire only on the structural
// change they repair, so the whole set can run on every start.
package bootstrap
