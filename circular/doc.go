// Package circular provides small sliding-window sizing helpers used when
// bounding memory for ring buffers, such as the traversal engine's
// cycle-guard visited-node window.
package circular
