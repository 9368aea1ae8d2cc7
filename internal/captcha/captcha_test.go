package captcha

import "testing"

func TestNew_IssuesSolvableChallenge(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.ID == "" || c.Image == "" || c.Answer == "" {
		t.Fatalf("expected a fully populated challenge, got %+v", c)
	}

	if !Verify(c.ID, c.Answer) {
		t.Fatal("expected the correct answer to verify")
	}
}

func TestVerify_ConsumesChallengeOnFirstCheck(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if !Verify(c.ID, c.Answer) {
		t.Fatal("expected first verification to succeed")
	}
	if Verify(c.ID, c.Answer) {
		t.Fatal("expected a replayed answer to be rejected")
	}
}

func TestVerify_WrongAnswerRejected(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if Verify(c.ID, c.Answer+"0") {
		t.Fatal("expected a wrong answer to be rejected")
	}
}

func TestVerify_UnknownIDRejected(t *testing.T) {
	if Verify("does-not-exist", "0000") {
		t.Fatal("expected an unknown challenge id to be rejected")
	}
}
