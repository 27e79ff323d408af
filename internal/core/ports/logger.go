package ports

// Logger reports lock progress. Error renders a failure together with its zerr metadata.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Debug(msg string)
	Error(err error)
}
