package domain

// Admin is a back-office administrator.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
}
