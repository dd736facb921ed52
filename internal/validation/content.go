package validation

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MaxPostLength    = 5000
	MaxCommentLength = 2000
	MaxBioLength     = 500
)

// ValidatePostContent requires non-blank text within MaxPostLength runes.
func ValidatePostContent(content string) error {
	return validateText("post content", content, MaxPostLength)
}

// ValidateCommentContent requires non-blank text within MaxCommentLength runes.
func ValidateCommentContent(content string) error {
	return validateText("comment", content, MaxCommentLength)
}

// ValidateBio allows an empty bio.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return errors.New("bio must not exceed 500 characters")
	}
	return nil
}

// ValidateMediaURL accepts an empty value or an absolute http(s) URL.
func ValidateMediaURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("media url must be an absolute http or https URL")
	}
	return nil
}

func validateText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " must not be empty")
	}
	if utf8.RuneCountInString(value) > max {
		return errors.New(field + " is too long")
	}
	return nil
}
