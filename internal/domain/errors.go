package domain

import (
	"errors"
)

var (
	// ErrConfiguration signals a missing or invalid setting (endpoint, key, deployment, index name).
	ErrConfiguration = errors.New("configuration error")
	// ErrRetrieval signals a failed call to the search service.
	ErrRetrieval = errors.New("retrieval error")
	// ErrInvalidQuery signals a query the search service would reject.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument signals a document that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrIndexNotReady signals that a freshly created index did not become queryable in time.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGeneration signals a failed or empty language model completion.
	ErrGeneration = errors.New("generation error")
)

// MissingSettingError wraps ErrConfiguration with the names of the unset settings.
type MissingSettingError struct {
	Component string
	Settings  []string
}

func (e *MissingSettingError) Error() string {
	msg := ErrConfiguration.Error() + ": " + e.Component + " requires"
	for i, s := range e.Settings {
		if i > 0 {
			msg += ","
		}
		msg += " " + s
	}
	return msg
}

func (e *MissingSettingError) Unwrap() error { return ErrConfiguration }

// RequireSettings returns a MissingSettingError naming every empty value, or nil.
// settings is a list of name/value pairs.
func RequireSettings(component string, settings ...string) error {
	var missing []string
	for i := 0; i+1 < len(settings); i += 2 {
		if settings[i+1] == "" {
			missing = append(missing, settings[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingSettingError{Component: component, Settings: missing}
}
