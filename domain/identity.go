package domain

// Identity is the authenticated view of a user, produced by the credential
// verifier at connection time and attached immutably to the session.
// Users are created by the external identity provider; this subsystem only
// reads them.
type Identity struct {
	ID    string
	Name  string
	Email string
	Phone string
}
