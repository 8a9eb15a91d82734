package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/idtoken"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/domain"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

const testPassword = "Secret#123"

func newTestJWT() *util.JWTManager {
	return util.NewJWTManager("test-secret", time.Hour, 10*time.Minute)
}

func newTestStudent(t *testing.T, enrollment, email, password string) *domain.Student {
	t.Helper()
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		t.Fatalf("derive password: %v", err)
	}
	return &domain.Student{
		ID:               uuid.New(),
		EnrollmentNumber: enrollment,
		Email:            email,
		FullName:         "Test Student",
		Batch:            "B-2024",
		PasswordHash:     hash,
		PasswordSalt:     salt,
	}
}

func newTestInstructor(t *testing.T, email, password string, batches ...string) *domain.Instructor {
	t.Helper()
	in := &domain.Instructor{
		ID:       uuid.New(),
		Email:    email,
		FullName: "Test Instructor",
		Batches:  batches,
	}
	if password != "" {
		hash, salt, err := util.DerivePassword(password)
		if err != nil {
			t.Fatalf("derive password: %v", err)
		}
		in.PasswordHash = hash
		in.PasswordSalt = salt
	}
	return in
}

func TestAuthService_LoginStudent(t *testing.T) {
	student := newTestStudent(t, "CC001", "ada@example.com", testPassword)
	svc := NewAuthService(newFakeStudentRepo(student), newFakeInstructorRepo(), newFakeDenylist(), newTestJWT(), "")

	res, err := svc.LoginStudent(context.Background(), "  cc001 ", testPassword)
	if err != nil {
		t.Fatalf("LoginStudent returned error: %v", err)
	}
	if res.Token == "" || res.MustChangePassword || res.TempToken != "" {
		t.Fatalf("unexpected login result %+v", res)
	}
	if res.Student == nil || res.Student.ID != student.ID {
		t.Fatalf("expected student in result")
	}

	if _, err := svc.LoginStudent(context.Background(), "CC001", "Wrong#123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.LoginStudent(context.Background(), "CC404", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown enrollment, got %v", err)
	}
}

func TestAuthService_LoginStudentMustChangePassword(t *testing.T) {
	student := newTestStudent(t, "CC002", "bob@example.com", testPassword)
	student.MustChangePassword = true
	jwtManager := newTestJWT()
	svc := NewAuthService(newFakeStudentRepo(student), newFakeInstructorRepo(), newFakeDenylist(), jwtManager, "")

	res, err := svc.LoginStudent(context.Background(), "CC002", testPassword)
	if err != nil {
		t.Fatalf("LoginStudent returned error: %v", err)
	}
	if !res.MustChangePassword || res.Token != "" || res.TempToken == "" {
		t.Fatalf("expected only a temp token, got %+v", res)
	}
	claims, err := jwtManager.Parse(res.TempToken)
	if err != nil {
		t.Fatalf("parse temp token: %v", err)
	}
	if claims.Purpose != util.TokenPurposePasswordChange || claims.UserID != student.ID {
		t.Fatalf("unexpected temp token claims %+v", claims)
	}

	// The temp token must not work as an access token.
	if _, err := svc.Authenticate(context.Background(), res.TempToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for temp token, got %v", err)
	}
}

func TestAuthService_LoginInstructor(t *testing.T) {
	in := newTestInstructor(t, "grace@example.com", testPassword, "B-2024")
	noPassword := newTestInstructor(t, "google@example.com", "")
	svc := NewAuthService(newFakeStudentRepo(), newFakeInstructorRepo(in, noPassword), newFakeDenylist(), newTestJWT(), "")

	res, err := svc.LoginInstructor(context.Background(), "Grace@Example.com ", testPassword)
	if err != nil {
		t.Fatalf("LoginInstructor returned error: %v", err)
	}
	if res.Token == "" || res.Instructor == nil || res.Instructor.ID != in.ID {
		t.Fatalf("unexpected login result %+v", res)
	}

	if _, err := svc.LoginInstructor(context.Background(), "google@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for google-only account, got %v", err)
	}
}

func TestAuthService_LoginInstructorWithGoogle(t *testing.T) {
	in := newTestInstructor(t, "grace@example.com", "", "B-2024")
	svc := NewAuthService(newFakeStudentRepo(), newFakeInstructorRepo(in), newFakeDenylist(), newTestJWT(), "client-id")

	var gotAudience string
	claims := map[string]interface{}{"email": "GRACE@example.com", "email_verified": true}
	svc.validateGoogle = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		if token != "good-token" {
			return nil, errors.New("bad token")
		}
		return &idtoken.Payload{Claims: claims}, nil
	}

	res, err := svc.LoginInstructorWithGoogle(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("LoginInstructorWithGoogle returned error: %v", err)
	}
	if gotAudience != "client-id" {
		t.Fatalf("expected audience client-id, got %q", gotAudience)
	}
	if res.Instructor == nil || res.Instructor.ID != in.ID {
		t.Fatalf("expected instructor %s in result", in.ID)
	}

	if _, err := svc.LoginInstructorWithGoogle(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for rejected token, got %v", err)
	}

	claims["email"] = "stranger@example.com"
	if _, err := svc.LoginInstructorWithGoogle(context.Background(), "good-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown instructor, got %v", err)
	}

	claims["email"] = "grace@example.com"
	claims["email_verified"] = false
	if _, err := svc.LoginInstructorWithGoogle(context.Background(), "good-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unverified email, got %v", err)
	}
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	student := newTestStudent(t, "CC003", "cy@example.com", testPassword)
	denylist := newFakeDenylist()
	stale := domain.RevokedToken{JTI: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	denylist.revoked[stale.JTI] = stale

	svc := NewAuthService(newFakeStudentRepo(student), newFakeInstructorRepo(), denylist, newTestJWT(), "")
	res, err := svc.LoginStudent(context.Background(), "CC003", testPassword)
	if err != nil {
		t.Fatalf("LoginStudent returned error: %v", err)
	}

	principal, err := svc.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if !principal.IsStudent() || principal.Student.ID != student.ID || principal.TokenID == "" {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if err := svc.Logout(context.Background(), res.Token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	entry, ok := denylist.revoked[principal.TokenID]
	if !ok {
		t.Fatalf("expected jti %s to be revoked", principal.TokenID)
	}
	if !entry.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected denylist entry to keep token expiry, got %v", entry.ExpiresAt)
	}
	if len(denylist.purgeCalls) != 1 {
		t.Fatalf("expected one purge call, got %d", len(denylist.purgeCalls))
	}
	if _, ok := denylist.revoked["stale"]; ok {
		t.Fatalf("expected expired denylist entry to be purged")
	}

	if _, err := svc.Authenticate(context.Background(), res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestAuthService_LogoutIgnoresPurgeFailure(t *testing.T) {
	student := newTestStudent(t, "CC004", "di@example.com", testPassword)
	denylist := newFakeDenylist()
	denylist.purgeErr = errors.New("db down")
	svc := NewAuthService(newFakeStudentRepo(student), newFakeInstructorRepo(), denylist, newTestJWT(), "")

	res, err := svc.LoginStudent(context.Background(), "CC004", testPassword)
	if err != nil {
		t.Fatalf("LoginStudent returned error: %v", err)
	}
	if err := svc.Logout(context.Background(), res.Token); err != nil {
		t.Fatalf("expected logout to succeed despite purge failure, got %v", err)
	}
	if len(denylist.revoked) != 1 {
		t.Fatalf("expected token to be revoked")
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	student := newTestStudent(t, "CC005", "ed@example.com", testPassword)
	students := newFakeStudentRepo(student)
	svc := NewAuthService(students, newFakeInstructorRepo(), newFakeDenylist(), newTestJWT(), "")
	principal := &domain.Principal{Kind: domain.PrincipalStudent, ID: student.ID, Student: student}

	if err := svc.ChangePassword(context.Background(), principal, testPassword, "weak"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), principal, "Wrong#123", "Better#456"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), principal, testPassword, "Better#456"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := svc.LoginStudent(context.Background(), "CC005", "Better#456"); err != nil {
		t.Fatalf("expected login with new password, got %v", err)
	}
}

func TestAuthService_RegisterInstructor(t *testing.T) {
	admin := newTestInstructor(t, "admin@example.com", testPassword)
	admin.IsAdmin = true
	plain := newTestInstructor(t, "plain@example.com", testPassword)
	instructors := newFakeInstructorRepo(admin, plain)
	svc := NewAuthService(newFakeStudentRepo(), instructors, newFakeDenylist(), newTestJWT(), "")

	adminPrincipal := &domain.Principal{Kind: domain.PrincipalInstructor, ID: admin.ID, Instructor: admin}
	plainPrincipal := &domain.Principal{Kind: domain.PrincipalInstructor, ID: plain.ID, Instructor: plain}

	input := RegisterInstructorInput{Email: " New@Example.com", FullName: " New One ", Batches: []string{" B-2024 ", ""}}
	if _, err := svc.RegisterInstructor(context.Background(), plainPrincipal, input); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	created, err := svc.RegisterInstructor(context.Background(), adminPrincipal, input)
	if err != nil {
		t.Fatalf("RegisterInstructor returned error: %v", err)
	}
	if created.Email != "new@example.com" || created.FullName != "New One" {
		t.Fatalf("expected normalized instructor, got %+v", created)
	}
	if len(created.Batches) != 1 || created.Batches[0] != "B-2024" {
		t.Fatalf("expected trimmed batches, got %v", created.Batches)
	}
	if len(created.PasswordHash) != 0 {
		t.Fatalf("expected no password for instructor registered without one")
	}

	var verr *ValidationError
	if _, err := svc.RegisterInstructor(context.Background(), adminPrincipal, RegisterInstructorInput{}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["email"]; !ok {
		t.Fatalf("expected email field error, got %v", verr.Fields)
	}

	instructors.createErr = &pgconn.PgError{Code: "23505"}
	if _, err := svc.RegisterInstructor(context.Background(), adminPrincipal, input); !errors.Is(err, ErrEmailAlreadyUsed) {
		t.Fatalf("expected ErrEmailAlreadyUsed, got %v", err)
	}
}
