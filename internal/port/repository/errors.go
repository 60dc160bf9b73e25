package repository

import "errors"

var ErrNotFound = errors.New("not found")

// ErrRunAlreadyFinished is returned by CompleteRun when the run already has a
// terminal status; finished_at must only ever be written once.
var ErrRunAlreadyFinished = errors.New("scrape run already finished")
