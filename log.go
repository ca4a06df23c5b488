package stele

import "github.com/sirupsen/logrus"

// logf prints pipeline progress when logging is enabled.
func (s *Scribe) logf(format string, args ...interface{}) {
	if s.EnableLog {
		logrus.Printf(format, args...)
	}
}

// logURL reports a resource download in verbose mode.
func (s *Scribe) logURL(url string, parentURL string, cached bool) {
	if !s.EnableVerboseLog {
		return
	}

	if cached {
		logrus.Printf("(CACHE) %s\n\tfrom %s\n", url, parentURL)
		return
	}

	logrus.Printf("%s\n\tfrom %s\n", url, parentURL)
}
