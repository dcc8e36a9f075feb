// Package htmlgen renders annotated documents to HTML.
//
// The renderer's distinguishing feature is backreference-based
// minification: goal/hypothesis blocks that render identically are
// emitted once, and every later occurrence becomes a <q> element holding
// the base16 index of the block it repeats. A small script embedded in
// minified pages resolves the backreferences at display time; package
// unminify performs the same resolution offline.
//
// Block identity is content-addressed (document.BlockKey over the
// rendered value), so equality never depends on rendering order.
package htmlgen
