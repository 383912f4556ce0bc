package domain

import "errors"

// User-facing failures. Messages are rendered verbatim on the page.
var (
	ErrMissingAPIKey     = errors.New("OPENAI_API_KEY is not set.")
	ErrMissingPassword   = errors.New("APP_PASSWORD is not set.")
	ErrWrongPassword     = errors.New("Wrong password.")
	ErrNotAuthenticated  = errors.New("Please log in with the workshop password first.")
	ErrEmptyPrompt       = errors.New("Please enter a prompt.")
	ErrUnsupportedFormat = errors.New("HEIC/HEIF files are not supported. Please save the image as JPG or PNG and upload it again.")
	ErrNoImageData       = errors.New("The response contained no image data.")
	ErrNoLastImage       = errors.New("No previous image available. Please generate one first.")
)
