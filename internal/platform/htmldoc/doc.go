// Package htmldoc is an offline driver that serves a saved HTML snapshot
// of the reader as a Document. Layout is not computed: geometry comes from
// data-bounds="x,y,w,h" attributes and the viewport from
// <html data-viewport="WxH">. Activation calls are recorded rather than
// executed, which makes the package useful both for replaying captured
// pages with `page-turner probe` and as the in-memory document in tests.
package htmldoc
