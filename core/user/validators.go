package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shule/core"
	appfs "github.com/trezcool/shule/fs"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"
	commonPasswords = make([]string, 0, 1000)
)

func init() {
	loadCommonPasswords()

	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords() {
	if file, err := appfs.FS.Open("assets/common-passwords.txt.gz"); err == nil {
		//goland:noinspection GoUnhandledErrorResult
		defer file.Close()
		if gzRdr, err := gzip.NewReader(file); err == nil {
			scanner := bufio.NewScanner(gzRdr)
			for scanner.Scan() {
				commonPasswords = append(commonPasswords, strings.TrimSpace(scanner.Text()))
			}
		}
	}
	sort.Strings(commonPasswords)
}

// ValidatePassword applies the password policy to the provided password:
// - minLen: 8
// - no whitespace
// - not all numeric
// - not similar to the user's own attributes (username, names, email)
// - not a common password
// Violations are reported on `field` of the struct under validation.
func ValidatePassword(sl validator.StructLevel, field, structField, pwd string, userAttrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, field, structField, tag, "")
	}

	if len(pwd) < pwdMinLen {
		reportErr(pwdMinLenTag)
	}

	var digitCount int
	for _, r := range pwd {
		if unicode.IsSpace(r) {
			reportErr(pwdNoSpaceTag)
			break
		}
		if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if len(pwd) > 0 && digitCount == len(pwd) {
		reportErr(pwdNotAllNumTag)
	}

	if isSimilarToAttrs(pwd, userAttrs) {
		reportErr(pwdAttrSimTag)
	}

	if isCommonPassword(pwd) {
		reportErr(pwdNoCommonTag)
	}
}

// isSimilarToAttrs checks the password against each user attribute (and each
// word within it) for a similarity ratio above pwdMaxSim.
func isSimilarToAttrs(pwd string, attrs []string) bool {
	pwdChars := splitChars(strings.ToLower(pwd))
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		parts := append(strings.FieldsFunc(attr, func(r rune) bool { return r == ' ' || r == '@' || r == '.' }), attr)
		for _, part := range parts {
			if part == "" {
				continue
			}
			m := difflib.NewMatcher(pwdChars, splitChars(part))
			if m.Ratio() > pwdMaxSim {
				return true
			}
		}
	}
	return false
}

func isCommonPassword(pwd string) bool {
	pwd = strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, pwd); idx < len(commonPasswords) {
		return commonPasswords[idx] == pwd
	}
	return false
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
