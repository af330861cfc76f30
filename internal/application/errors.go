package application

import "errors"

var ErrRunInProgress = errors.New("another run is in progress")
var ErrNoSites = errors.New("no sites configured")
