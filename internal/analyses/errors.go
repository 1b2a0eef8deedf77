package analyses

import "errors"

// ErrAnalysisFormatInvalid marks provider output that is not a usable analysis.
var ErrAnalysisFormatInvalid = errors.New("analysis format invalid")
