// Package embed performs the reparent/restyle/restore transitions on
// native window handles. It is the only writer of a window's style
// snapshot: captured at embed time, exclusively owned for the session
// lifetime, required to reverse the embedding exactly.
//
// States: Free -> Embedding -> Embedded -> Releasing -> Released, with
// Invalidated as the terminal state when the handle goes away
// mid-transition. The controller itself is stateless between calls;
// session state lives in the registry.
package embed
