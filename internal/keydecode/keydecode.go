// Package keydecode recovers parent node ids from the opaque attempt tokens
// the platform hands out for quiz and unit-test attempts.
//
// The tokens are unpadded base64 over an internal binary id encoding. The
// parent id sits between fixed delimiter bytes. Nothing upstream documents
// this layout, so all knowledge of it is confined to this file.
package keydecode

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// FormatVersion names the token layout this package understands.
const FormatVersion = "2024-positionkey-v1"

const (
	quizOpen     = "\u0011"
	unitTestOpen = ":"
	closeDelim   = "\u000c"
)

// Variant selects which delimiter scheme a token uses.
type Variant int

const (
	// Quiz tokens are quiz attempt position keys.
	Quiz Variant = iota
	// UnitTest tokens are unit-test attempt ids.
	UnitTest
)

func (v Variant) String() string {
	switch v {
	case Quiz:
		return "quiz"
	case UnitTest:
		return "unit-test"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant maps a user-facing name ("quiz", "unit-test") to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiz":
		return Quiz, nil
	case "unit-test", "unittest", "test":
		return UnitTest, nil
	}
	return 0, fmt.Errorf("unknown token kind %q (want quiz or unit-test)", s)
}

func (v Variant) open() string {
	if v == UnitTest {
		return unitTestOpen
	}
	return quizOpen
}

// DecodeError reports a token that does not match FormatVersion.
// It usually means the upstream encoding changed.
type DecodeError struct {
	Token  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode token %q: %s", e.Token, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode pads token to a multiple of four with '=', base64-decodes it and
// returns the bytes as text. Invalid UTF-8 is replaced with U+FFFD.
func Decode(token string) (string, error) {
	padded := token
	if rem := len(padded) % 4; rem != 0 {
		padded += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		return "", &DecodeError{Token: token, Reason: "invalid base64", Err: err}
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
}

// Parent decodes token and returns the text strictly between the variant's
// opening delimiter and the first U+000C after it.
func Parent(v Variant, token string) (string, error) {
	decoded, err := Decode(token)
	if err != nil {
		return "", err
	}
	open := v.open()
	start := strings.Index(decoded, open)
	if start < 0 {
		return "", &DecodeError{Token: token, Reason: fmt.Sprintf("%s token has no opening delimiter %q", v, open)}
	}
	rest := decoded[start+len(open):]
	end := strings.Index(rest, closeDelim)
	if end < 0 {
		return "", &DecodeError{Token: token, Reason: fmt.Sprintf("%s token has no closing delimiter %q", v, closeDelim)}
	}
	return rest[:end], nil
}

// QuizParent returns the id of the node owning a quiz attempt position key.
func QuizParent(positionKey string) (string, error) {
	return Parent(Quiz, positionKey)
}

// UnitTestParent returns the id of the node owning a unit-test attempt id.
func UnitTestParent(attemptID string) (string, error) {
	return Parent(UnitTest, attemptID)
}
