package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxFullName  = "auth.fullName"
	CtxRoles     = "auth.roles"
)
