package extractor

import "time"

const (
	defaultHeaderWorkers    = 8
	defaultProgressInterval = 10 * time.Second
)
