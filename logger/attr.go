package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Lang records a language pair under the keys "from" and "to".
func Lang(from, to string) slog.Attr {
	return slog.Group("lang", slog.String("from", from), slog.String("to", to))
}

// URL records a request URL under the key "url".
func URL(u string) slog.Attr {
	return slog.String("url", u)
}

// Generation records a cache generation under the key "generation".
func Generation(g string) slog.Attr {
	return slog.String("generation", g)
}
