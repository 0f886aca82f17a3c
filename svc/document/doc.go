// Package document turns the rendered settlement note into a one-page A4
// PDF.
//
// Rendering happens in two stages. A Rasterizer loads the standalone HTML of
// the note into a headless browser, waits (bounded) for its images and
// captures the note element as a bitmap. The composer then fits that bitmap
// onto an A4 page as a JPEG. RodRasterizer drives Chrome through go-rod;
// tests inject their own Rasterizer.
package document
