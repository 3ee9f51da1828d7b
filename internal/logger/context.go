package logger

// Component-specific logger functions

// Store returns a logger for connection and store lifecycle operations
func Store() Logger {
	return WithField("component", "store")
}

// Schema returns a logger for reflection and table creation
func Schema() Logger {
	return WithField("component", "schema")
}

// Query returns a logger for read operations
func Query() Logger {
	return WithField("component", "query")
}

// Writer returns a logger for batch write operations
func Writer() Logger {
	return WithField("component", "writer")
}

// Geometry returns a logger for the spatial extension and geometry codec
func Geometry() Logger {
	return WithField("component", "geometry")
}

// Template returns a logger for query template rendering
func Template() Logger {
	return WithField("component", "template")
}

// Config returns a logger for configuration discovery
func Config() Logger {
	return WithField("component", "config")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
