// Package user stores user identities together with their credential record
// (UserSecurity) and task collections. Emails are unique, compared without
// regard to case.
package user
