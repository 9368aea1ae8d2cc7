// Package captcha generates and verifies the image challenge gating
// account registration, grounded on the teacher's internal/utils/captcha.go
// wrapper around base64Captcha.
package captcha

import "github.com/mojocn/base64Captcha"

var store = base64Captcha.DefaultMemStore

// Challenge is a freshly generated captcha: ID identifies the pending
// answer server-side, Image is a data-URI-ready base64 PNG, and Answer is
// the plaintext solution — callers that hand a challenge to an anonymous
// client must discard Answer rather than include it in the response.
type Challenge struct {
	ID     string
	Image  string
	Answer string
}

// New generates a 4-digit numeric challenge.
func New() (Challenge, error) {
	driver := base64Captcha.NewDriverDigit(80, 240, 4, 0.7, 80)
	c := base64Captcha.NewCaptcha(driver, store)
	id, content, answer := driver.GenerateIdQuestionAnswer()
	item, err := driver.DrawCaptcha(content)
	if err != nil {
		return Challenge{}, err
	}
	if err := c.Store.Set(id, answer); err != nil {
		return Challenge{}, err
	}
	return Challenge{ID: id, Image: item.EncodeB64string(), Answer: answer}, nil
}

// Verify reports whether answer matches the challenge named by id, and
// consumes it either way so a captcha can never be replayed.
func Verify(id, answer string) bool {
	return store.Verify(id, answer, true)
}
