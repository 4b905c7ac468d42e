package httpmiddleware

import "github.com/go-faster/jx"

func errorBody(code int, message string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	return e.Bytes()
}
