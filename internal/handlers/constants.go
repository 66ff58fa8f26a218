package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrInternalServerError = "Internal server error"

	// defaultMaxBodyBytes bounds JSON bodies and uploaded frames
	defaultMaxBodyBytes = 8 << 20
)
