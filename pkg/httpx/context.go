package httpx

type ctxKey string

const (
	// CtxKeySession carries the validated session for the request.
	CtxKeySession ctxKey = "session"
	// CtxKeyUser carries the user that owns the request session.
	CtxKeyUser ctxKey = "user"
)
