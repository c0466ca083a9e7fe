package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/simple-idm-mfa/pkg/domain"
	"github.com/tendant/simple-idm-mfa/pkg/session"
	"github.com/tendant/simple-idm-mfa/pkg/totp"
)

// MFAConfig contains configuration for the MFA service
type MFAConfig struct {
	Issuer string      // shown in authenticator apps, e.g. "Simple IDM"
	TOTP   totp.Config // digits, period, skew and algorithm
	Codec  SecretCodec // stored form of secrets; nil stores plain Base32
	Now    func() time.Time
}

// MFAService drives each session through
// UNAUTHENTICATED -> PRIMARY_OK -> MFA_VERIFIED and owns enrollment and
// disablement of the account's TOTP secret.
type MFAService struct {
	config   MFAConfig
	users    UserStore
	sessions session.Store
	logger   *slog.Logger
}

// NewMFAService creates a new MFA service
func NewMFAService(config MFAConfig, users UserStore, sessions session.Store, logger *slog.Logger) *MFAService {
	if config.Codec == nil {
		config.Codec = PlainSecretCodec{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MFAService{
		config:   config,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// State returns the session's state. Unknown or expired sessions are
// unauthenticated.
func (s *MFAService) State(ctx context.Context, sid string) (domain.AuthState, error) {
	if sid == "" {
		return domain.Unauthenticated(), nil
	}
	state, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired) {
		return domain.Unauthenticated(), nil
	}
	if err != nil {
		return domain.AuthState{}, fmt.Errorf("failed to load session: %w", err)
	}
	return state, nil
}

// OnPrimaryLoginSuccess records a successful password check for username on
// the session. Accounts without MFA are fully authenticated at once; the
// rest must pass a TOTP challenge.
func (s *MFAService) OnPrimaryLoginSuccess(ctx context.Context, sid, username string) (domain.LoginOutcome, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	state := domain.AuthState{PrimaryUser: user.Username, Phase: domain.PhaseMFAVerified}
	outcome := domain.LoginComplete
	if user.MFAEnabled {
		state.Phase = domain.PhasePrimaryOK
		outcome = domain.LoginMFARequired
	}
	state.UpdatedAt = s.config.Now().UTC()

	if err := s.sessions.Save(ctx, sid, state); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return outcome, nil
}

// EnrollMFA binds a fresh secret to username, replacing any previous one,
// and returns what the user needs to configure an authenticator app. The
// session must have passed primary login as that user. A QR rendering
// failure is reported in the enrollment, not as an error, since the secret
// is already stored.
func (s *MFAService) EnrollMFA(ctx context.Context, sid, username string) (*domain.MFAEnrollment, error) {
	state, err := s.State(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !state.IsUser(username) {
		return nil, domain.ErrInvalidSessionState
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	secret := totp.GenerateSecret()
	uri, err := totp.BuildEnrollmentURI(secret, user.Username, s.config.Issuer, s.config.TOTP)
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment URI: %w", err)
	}
	stored, err := s.config.Codec.Seal(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to seal MFA secret: %w", err)
	}
	if err := s.users.EnableMFA(ctx, user.ID, stored); err != nil {
		return nil, fmt.Errorf("failed to enable MFA: %w", err)
	}

	enrollment := &domain.MFAEnrollment{
		Secret:     secret,
		SecretText: totp.EncodeSecret(secret),
		URI:        uri,
	}
	enrollment.QRCode, enrollment.QRError = totp.RenderQRImage(uri)
	if enrollment.QRError != nil {
		s.logger.Warn("failed to render enrollment QR code", "username", username, "error", enrollment.QRError)
	}

	s.logger.Info("MFA enrolled", "username", username)
	return enrollment, nil
}

// SubmitChallenge checks a TOTP code for a session awaiting its second
// factor. A wrong code returns ChallengeRejected with a nil error and leaves
// the session as it was.
func (s *MFAService) SubmitChallenge(ctx context.Context, sid, code string) (domain.ChallengeResult, error) {
	state, err := s.State(ctx, sid)
	if err != nil {
		return "", err
	}
	if state.Phase != domain.PhasePrimaryOK || state.PrimaryUser == "" {
		return "", domain.ErrInvalidSessionState
	}

	user, err := s.users.GetByUsername(ctx, state.PrimaryUser)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidSessionState
	}
	if err != nil {
		return "", err
	}
	if !user.HasMFA() {
		s.logger.Warn("MFA challenge for account without a usable MFA record",
			"username", user.Username, "mfa_enabled", user.MFAEnabled, "has_secret", user.MFASecret != "")
		return "", domain.ErrMFANotConfigured
	}

	secret, err := s.config.Codec.Open(user.MFASecret)
	if err != nil {
		s.logger.Warn("failed to open stored MFA secret", "username", user.Username, "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrMFANotConfigured, err)
	}

	if !totp.VerifyCode(secret, strings.TrimSpace(code), s.config.Now().Unix(), s.config.TOTP) {
		return domain.ChallengeRejected, nil
	}

	state.Phase = domain.PhaseMFAVerified
	state.UpdatedAt = s.config.Now().UTC()
	if err := s.sessions.Save(ctx, sid, state); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return domain.ChallengeAccepted, nil
}

// DisableMFA clears the account's MFA flag and secret. Only a fully
// authenticated session for username may do this, and it stays fully
// authenticated afterwards.
func (s *MFAService) DisableMFA(ctx context.Context, sid, username string) error {
	state, err := s.State(ctx, sid)
	if err != nil {
		return err
	}
	if !state.IsFullyAuthenticated() || state.PrimaryUser != username {
		return domain.ErrInvalidSessionState
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.DisableMFA(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to disable MFA: %w", err)
	}

	s.logger.Info("MFA disabled", "username", username)
	return nil
}

// IsFullyAuthenticated is the access gate for protected operations.
func (s *MFAService) IsFullyAuthenticated(ctx context.Context, sid string) bool {
	state, err := s.State(ctx, sid)
	if err != nil {
		s.logger.Error("failed to load session", "error", err)
		return false
	}
	return state.IsFullyAuthenticated()
}

// CurrentUser returns the account of a fully authenticated session.
func (s *MFAService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	state, err := s.State(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !state.IsFullyAuthenticated() {
		return nil, domain.ErrInvalidSessionState
	}
	return s.users.GetByUsername(ctx, state.PrimaryUser)
}

// Logout destroys the session's state.
func (s *MFAService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
