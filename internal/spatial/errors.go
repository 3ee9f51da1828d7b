package spatial

import "errors"

var (
	// ErrUnsupportedGeometry is returned for inputs that are not a recognized shape
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
	// ErrInvalidGeometry is returned for malformed WKT or native values
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrUnsupportedProjection is returned when a spatial reference cannot be
	// converted to geographic coordinates
	ErrUnsupportedProjection = errors.New("unsupported projection")
)
