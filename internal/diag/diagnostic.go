package diag

import (
	"dropelab/internal/source"
)

type Note struct {
	Span source.Span `msgpack:"span"`
	Msg  string      `msgpack:"msg"`
}

type Diagnostic struct {
	Severity Severity    `msgpack:"sev"`
	Code     Code        `msgpack:"code"`
	Message  string      `msgpack:"msg"`
	Primary  source.Span `msgpack:"primary"`
	Notes    []Note      `msgpack:"notes,omitempty"`
}
