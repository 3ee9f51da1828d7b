// Package spatial implements dbflow's geometry support: the codec between
// WKT/EWKT or in-memory shapes and the store's native geometry encoding,
// envelope computation in geographic coordinates, and the SQL functions the
// store registers as its spatial extension.
//
// The native encoding is a 4 byte little-endian SRID followed by a 2D ISO
// WKB body. Shapes carrying Z or M ordinates are reduced to two dimensions
// on encode.
package spatial
