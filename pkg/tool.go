package pkg

import "strings"

// EmailName returns the part of an email before "@"
func EmailName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
