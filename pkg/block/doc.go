// Package block defines the Block contract and the reference block kinds.
//
// A Block is the minimal unit of rendered output. Compiled render
// functions produce fresh, unmounted blocks on every render; the first one
// is mounted and every later one is handed to Patch, which moves its state
// into the mounted block without changing the mounted block's identity.
//
// # Block kinds
//
//   - Text: a single text node.
//   - Element: one element with attributes, event handlers and a fixed
//     list of child blocks.
//   - Multi: a fixed number of optional slots (conditionals).
//   - List: keyed children; matched keys are patched and moved, new keys
//     mounted, vanished keys removed.
//
// Component nodes are blocks too. They implement Persistent: a persistent
// block is only ever patched by itself, a different one in the same
// position replaces it.
//
// Patch targets must have the same shape as the mounted block (same kind,
// tag, slot count and handler count). Shape mismatches are the template
// compiler's responsibility and panic here.
package block
