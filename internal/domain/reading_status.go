package domain

type ReadingStatus string

const (
	ReadingStatusOK          ReadingStatus = "ok"
	ReadingStatusFetchFailed ReadingStatus = "fetch_failed"
	ReadingStatusParseFailed ReadingStatus = "parse_failed"
)

func (s ReadingStatus) Failed() bool { return s != ReadingStatusOK }
