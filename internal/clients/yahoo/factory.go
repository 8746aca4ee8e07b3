package yahoo

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Client kinds accepted by New
const (
	KindHTTP   = "http"
	KindNative = "native"
)

// New returns the Provider selected by kind
func New(kind, baseURL string, log zerolog.Logger) (Provider, error) {
	switch kind {
	case "", KindHTTP:
		return NewClient(baseURL, log), nil
	case KindNative:
		return NewNativeClient(log), nil
	default:
		return nil, fmt.Errorf("unknown yahoo client %q", kind)
	}
}
