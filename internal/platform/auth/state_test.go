package auth

import "testing"

func TestState_SignInNotifiesListeners(t *testing.T) {
	s := NewState()
	var gotID string
	var gotSignedIn bool
	s.Subscribe(func(uid string, signedIn bool) {
		gotID = uid
		gotSignedIn = signedIn
	})

	s.SignIn("user-7")
	if gotID != "user-7" || !gotSignedIn {
		t.Fatalf("expected signed-in notification for user-7, got (%q, %v)", gotID, gotSignedIn)
	}
	if uid, ok := s.UserID(); !ok || uid != "user-7" {
		t.Fatalf("expected current user user-7, got (%q, %v)", uid, ok)
	}
}

func TestState_SignOutNotifiesAndClears(t *testing.T) {
	s := NewState()
	s.SignIn("user-7")

	signedOut := false
	s.Subscribe(func(_ string, signedIn bool) {
		if !signedIn {
			signedOut = true
		}
	})

	s.SignOut()
	if !signedOut {
		t.Fatal("expected sign-out notification")
	}
	if _, ok := s.UserID(); ok {
		t.Fatal("expected no current user after sign-out")
	}
}

func TestState_Unsubscribe(t *testing.T) {
	s := NewState()
	calls := 0
	unsub := s.Subscribe(func(string, bool) { calls++ })

	s.SignIn("a")
	unsub()
	s.SignOut()

	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestCredentialVerifier_RoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cv := CredentialVerifier{User: "admin", Hash: hash, Secret: testSecret}

	tok, err := cv.IssueToken("admin", "hunter2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := JWTVerifier{Secret: testSecret}.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: subject=%q role=%q", claims.Subject, claims.Role)
	}
}

func TestCredentialVerifier_WrongPassword(t *testing.T) {
	hash, _ := HashPassword("hunter2")
	cv := CredentialVerifier{User: "admin", Hash: hash, Secret: testSecret}

	if _, err := cv.IssueToken("admin", "wrong"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := cv.IssueToken("other", "hunter2"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials for unknown user, got %v", err)
	}
}
