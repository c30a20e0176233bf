package crew

import "regexp"

// MaxNameLength bounds package and crew names.
const MaxNameLength = 128

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName checks one identifier. field names it in the error message.
func ValidateName(field, value string) error {
	switch {
	case value == "":
		return newError(CategoryValidation, nil, "invalid %s name: must not be empty", field)
	case len(value) > MaxNameLength:
		return newError(CategoryValidation, nil, "invalid %s name: longer than %d characters", field, MaxNameLength)
	case !namePattern.MatchString(value):
		return newError(CategoryValidation, nil, "invalid %s name %q: must be alphanumeric with hyphens/underscores", field, value)
	}
	return nil
}

// Validate checks a package/crew pair before anything is spawned.
func Validate(packageName, crewName string) error {
	if err := ValidateName("package", packageName); err != nil {
		return err
	}
	return ValidateName("crew", crewName)
}
