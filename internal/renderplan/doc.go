// Package renderplan assembles the declarative rendering plan: ordered
// inputs, timed overlays, the optional subtitle track, and the output spec.
// Building a plan is pure; serializing it to encoder arguments lives with
// the encoder client.
package renderplan
