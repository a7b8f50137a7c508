// Package icons defines the static icon identifiers a tile layout may
// reference.
//
// The catalog maps each stable icon id to the drawable name the watch face
// ships with and a terminal glyph used by previews. Clients decide how to
// draw an id; services only name it.
package icons
