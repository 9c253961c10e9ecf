package decode

import (
	"errors"

	"github.com/makiuchi-d/gozxing"
)

// Classifier reports whether a decode error is the routine "nothing
// readable in this frame" signal rather than a genuine fault.
type Classifier func(err error) bool

// IsRoutine treats every gozxing reader exception (not found, checksum,
// format) as routine: a frame with a partial or blurred code is normal
// while scanning. Anything else is a fault.
func IsRoutine(err error) bool {
	if err == nil {
		return false
	}
	var re gozxing.ReaderException
	return errors.As(err, &re)
}

// IsNotFound is a stricter classifier: only "no symbol" is routine.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf gozxing.NotFoundException
	return errors.As(err, &nf)
}
