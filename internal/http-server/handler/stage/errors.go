package stage

import "errors"

var (
	ErrMissingImage  = errors.New("image is required")
	ErrMissingTaskID = errors.New("taskId is required")
)
