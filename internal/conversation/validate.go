package conversation

import (
	"strconv"
	"strings"
)

// ValidationError rejects a step input. Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Message }

// Validator normalizes a step input or rejects it with a *ValidationError.
// Returning ok=false with a nil error drops the field while still advancing.
type Validator func(input string) (value string, ok bool, err error)

const (
	msgRequired     = "❌ Por favor escribe una respuesta válida."
	msgQuestion     = "❌ Por favor escribe una pregunta válida."
	msgLocation     = "❌ Por favor escribe una ubicación válida."
	msgAgeNotNumber = "Por favor ingresa un número válido para la edad."
	msgAgeRange     = "Por favor ingresa una edad válida (1-120)."

	emailNone = "no"
)

func required(message string) Validator {
	return func(input string) (string, bool, error) {
		v := strings.TrimSpace(input)
		if v == "" {
			return "", false, &ValidationError{Message: message}
		}
		return v, true, nil
	}
}

func validateAge(input string) (string, bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return "", false, &ValidationError{Message: msgAgeNotNumber}
	}
	if n < 1 || n > 120 {
		return "", false, &ValidationError{Message: msgAgeRange}
	}
	return strconv.Itoa(n), true, nil
}

// validateEmail lower-cases the address. "no" means the user has none.
func validateEmail(input string) (string, bool, error) {
	v := strings.ToLower(strings.TrimSpace(input))
	if v == "" {
		return "", false, &ValidationError{Message: msgRequired}
	}
	if v == emailNone {
		return "", false, nil
	}
	return v, true, nil
}

// IsAffirmative reports whether a consent answer means yes.
func IsAffirmative(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "sí" || a == "si"
}
