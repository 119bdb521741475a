package user

// Principal is the resolved identity of an authenticated caller.
type Principal struct {
	UserID string
	Email  string
}
