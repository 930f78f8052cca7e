package search

// ErrInvalidConfig matches any *ConfigError via errors.Is.
var ErrInvalidConfig = &ConfigError{}

// ConfigError reports an invalid engine parameter. It is returned before
// any search work starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration"
	}
	return "invalid configuration: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

func configErr(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}
