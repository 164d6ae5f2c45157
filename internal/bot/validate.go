package bot

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength    = 64
	maxPackNameLength = 64

	addStickersURL = "https://t.me/addstickers/"
)

var (
	errTitleTooLong = errors.New("title too long")
	errTitleNewline = errors.New("title contains a newline")
	errNameTooLong  = errors.New("name too long")
	errNameInvalid  = errors.New("name invalid")
)

var (
	// names typed by the user, before the bot suffix is appended
	packNamePattern = regexp.MustCompile(`(?i)^[a-z]\w+$`)
	// full names of existing packs
	fullPackNamePattern = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9_]+[a-z0-9]$`)
)

var packLinkPrefixes = []string{"https://t.me/addstickers/", "http://t.me/addstickers/", "t.me/addstickers/"}

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) > maxTitleLength {
		return errTitleTooLong
	}
	if strings.ContainsAny(title, "\r\n") {
		return errTitleNewline
	}
	return nil
}

// maxNameLength is how long a typed name can be once the bot suffix is appended.
func (b *Bot) maxNameLength() int {
	return maxPackNameLength - len(b.suffix)
}

func validateName(name string, maxLength int) error {
	if len(name) > maxLength {
		return errNameTooLong
	}
	if !packNamePattern.MatchString(name) || strings.HasPrefix(name[1:], "__") {
		return errNameInvalid
	}
	return nil
}

// trimPackLink turns an addstickers link into a bare pack name.
func trimPackLink(raw string) string {
	name := strings.TrimSpace(raw)
	lower := strings.ToLower(name)
	for _, prefix := range packLinkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}

func (b *Bot) withSuffix(name string) string {
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(b.suffix)) {
		return name
	}
	return name + b.suffix
}

func (b *Bot) withoutSuffix(name string) string {
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(b.suffix)) {
		return name[:len(name)-len(b.suffix)]
	}
	return name
}

func packLink(name string) string {
	return addStickersURL + name
}
