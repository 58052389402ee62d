package teldata

type Logger interface {
	Info(message string, module string)
	Error(string)
}

type nopLogger struct{}

func (nopLogger) Info(string, string) {}
func (nopLogger) Error(string)        {}

var (
	logger    Logger = nopLogger{}
	verbosity int
)

func SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	logger = l
}

// SetVerbosity sets how much the package reports through its logger:
// 0 errors only, 1 file and database activity, 2 and above per event detail.
func SetVerbosity(v int) {
	verbosity = v
}
