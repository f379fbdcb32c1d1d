package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// usernamePattern allows word characters plus the handful of symbols the
// identity scheme permits.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// slugPattern matches URL-safe category/genre slugs.
var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// UserValidator validates identity fields. Limits come in at construction so
// nothing here reads process-wide state.
type UserValidator struct {
	usernameMaxLen int
	emailMaxLen    int
}

func NewUserValidator(usernameMaxLen, emailMaxLen int) *UserValidator {
	return &UserValidator{usernameMaxLen: usernameMaxLen, emailMaxLen: emailMaxLen}
}

// ValidateUsername checks the character set, the length limit and the
// reserved value "me" (any case), which collides with the self-profile route.
func (v *UserValidator) ValidateUsername(username string, verr *ValidationError) {
	if username == "" {
		verr.Add("username", "must not be empty")
		return
	}
	if strings.EqualFold(username, "me") {
		verr.Add("username", `"me" is reserved and cannot be used as a username`)
	}
	if len(username) > v.usernameMaxLen {
		verr.Add("username", fmt.Sprintf("must be at most %d characters", v.usernameMaxLen))
	}
	if !usernamePattern.MatchString(username) {
		verr.Add("username", "may contain only letters, digits and @/./+/-/_")
	}
}

func (v *UserValidator) ValidateEmail(email string, verr *ValidationError) {
	if email == "" {
		verr.Add("email", "must not be empty")
		return
	}
	if len(email) > v.emailMaxLen {
		verr.Add("email", fmt.Sprintf("must be at most %d characters", v.emailMaxLen))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "must be a valid email address")
	}
}

func validateSlug(slug string, verr *ValidationError) {
	if !slugPattern.MatchString(slug) {
		verr.Add("slug", "may contain only letters, digits, hyphens and underscores")
	}
}
