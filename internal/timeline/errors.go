package timeline

import "errors"

// ErrAmbiguousDuration marks a scene that cannot be timed: no audio elements
// and no explicit duration override.
var ErrAmbiguousDuration = errors.New("ambiguous scene duration")
