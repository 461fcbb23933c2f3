package fdfs

import (
	"os"

	"github.com/sirupsen/logrus"
)

// logger is the package-level structured logger used by the connection
// pools, the retry loop, and the upload rollback when the caller hasn't injected one
// of their own via ClientConfig.Logger. Grounded on the package-level
// logger instance pattern used throughout the pack's FastDFS clients,
// backed here by logrus's TextFormatter rather than the standard
// library's log.Logger.
var logger = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLogger replaces the package-level logger used by new clients and
// pools constructed after this call. It does not affect clients already
// constructed with a different injected logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		return
	}
	logger = l
}
