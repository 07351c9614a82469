package ingest

import (
	"errors"
	"fmt"
)

// DataUnavailableError signale une source introuvable ou illisible.
// C'est la seule erreur qui doit interrompre le pipeline : pas de nouvel essai avec des données dégradées.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable (%s): %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Unavailable construit une DataUnavailableError pour la source donnée.
func Unavailable(source string, err error) error {
	return &DataUnavailableError{Source: source, Err: err}
}

// IsDataUnavailable détecte une DataUnavailableError, même enveloppée.
func IsDataUnavailable(err error) bool {
	var target *DataUnavailableError
	return errors.As(err, &target)
}
