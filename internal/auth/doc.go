// Package auth validates caller API keys and derives the owner identity
// that scopes conversation visibility.
//
// The validated key doubles as the opaque owner identifier: every
// conversation is stamped with it at creation and all later access checks
// compare against it. The guard deliberately separates three failure modes:
// no key configured server-side (deployment error), no key supplied
// (unauthorized), and key mismatch (unauthorized).
package auth
