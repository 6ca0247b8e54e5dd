package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"auth-server/internal/config"
	"auth-server/internal/domain"
	"auth-server/internal/token"
	"auth-server/shared/interfaces"
	"auth-server/shared/models"

	"go.uber.org/zap"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

// authServiceImpl implements the AuthService interface.
type authServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRecordRepository
	codec     *token.Codec
	publisher interfaces.RevocationPublisher // may be nil
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl. The publisher is
// optional; pass nil to disable revocation events.
func NewAuthService(
	userRepo interfaces.UserRepository,
	tokenRepo interfaces.TokenRecordRepository,
	codec *token.Codec,
	publisher interfaces.RevocationPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		codec:     codec,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("AuthService"),
	}
}

// Register creates a new user and assigns the default role.
func (s *authServiceImpl) Register(ctx context.Context, userName, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	userName = strings.TrimSpace(userName)

	logFields := []zap.Field{zap.String("username", userName), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if userName == "" || password == "" {
		s.logger.Warn("Registration attempt with empty username or password", logFields...)
		return nil, fmt.Errorf("username and password are required: %w", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
	}

	user := &models.User{
		Username: userName,
		Name:     name,
		Email:    email,
		Roles:    []string{},
	}
	if err := s.userRepo.CreateUser(ctx, user, password); err != nil {
		// Uniqueness violations are already mapped by the repository.
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	if err := s.userRepo.AddToRole(ctx, userName, models.RoleUser); err != nil {
		s.logger.Error("Failed to assign default role", append(logFields, zap.Error(err))...)
		return nil, err
	}
	user.Roles = append(user.Roles, models.RoleUser)

	s.logger.Info("User registered successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and returns a fresh token pair. The pair is
// returned only after the refresh record is durably stored: a pair the store
// never saw would have nothing to match against on the next refresh.
func (s *authServiceImpl) Login(ctx context.Context, userName, password string) (*models.TokenPair, error) {
	s.logger.Info("Login attempt", zap.String("username", userName))

	user, err := s.userRepo.FindByName(ctx, userName)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Same error as a wrong password, to avoid username enumeration.
			s.logger.Warn("Login failed: user not found", zap.String("username", userName))
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("username", userName))
		return nil, err
	}

	if !s.userRepo.CheckPassword(user, password) {
		s.logger.Warn("Login failed: invalid password", zap.String("username", userName))
		return nil, models.ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.codec.Issue(user.Username, user.Roles, s.cfg.AccessTokenTTL)
	if err != nil {
		s.logger.Error("Failed to issue access token during login", zap.Error(err), zap.String("username", userName))
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		s.logger.Error("Failed to generate refresh token during login", zap.Error(err), zap.String("username", userName))
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Login is the only path that extends the refresh expiry.
	record := &models.TokenRecord{
		UserName:           user.Username,
		RefreshToken:       &refreshToken,
		RefreshTokenExpiry: time.Now().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.tokenRepo.Upsert(ctx, record); err != nil {
		// Abort: no token pair leaves the service unless the store has it.
		s.logger.Error("Failed to persist token record during login", zap.Error(err), zap.String("username", userName))
		return nil, err
	}

	s.logger.Info("User logged in successfully", zap.String("username", userName))
	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh rotates the token pair. The presented access token only needs a
// valid signature (it is usually expired); the presented refresh token must
// match the stored one and the stored expiry must be in the future. All
// rejections collapse into ErrTokenInvalid so a caller cannot probe which
// check failed. Concurrent refreshes for the same user race as
// last-writer-wins; the loser's pair simply stops matching the store.
func (s *authServiceImpl) Refresh(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error) {
	s.logger.Info("Token refresh attempt") // never log the tokens themselves

	claims, err := s.codec.ParseForRefresh(accessToken)
	if err != nil {
		s.logger.Warn("Refresh attempt with invalid access token signature", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	userName := claims.Name
	if userName == "" {
		s.logger.Warn("Refresh attempt with access token missing name claim")
		return nil, models.ErrTokenInvalid
	}
	log := s.logger.With(zap.String("username", userName))

	record, err := s.tokenRepo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			log.Warn("Refresh attempt with no stored token record")
			return nil, models.ErrTokenInvalid
		}
		log.Error("Error loading token record during refresh", zap.Error(err))
		return nil, err
	}

	if record.RefreshToken == nil || *record.RefreshToken != refreshToken {
		log.Warn("Refresh attempt with mismatched refresh token")
		return nil, models.ErrTokenInvalid
	}
	if !record.RefreshTokenExpiry.After(time.Now()) {
		log.Warn("Refresh attempt with expired refresh token record")
		return nil, models.ErrTokenInvalid
	}

	newAccessToken, expiresAt, err := s.codec.Issue(claims.Name, claims.Roles, s.cfg.AccessTokenTTL)
	if err != nil {
		log.Error("Failed to issue new access token during refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	newRefreshToken, err := token.NewRefreshToken()
	if err != nil {
		log.Error("Failed to generate new refresh token during refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Only the token value rotates; the stored expiry is not extended here.
	record.RefreshToken = &newRefreshToken
	if err := s.tokenRepo.Upsert(ctx, record); err != nil {
		log.Error("Failed to persist rotated token record", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Token refreshed successfully", zap.String("username", userName))
	return &models.TokenPair{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Revoke clears the stored refresh token for the user. Clearing an
// already-cleared record succeeds; only a missing record is an error.
func (s *authServiceImpl) Revoke(ctx context.Context, userName string) error {
	log := s.logger.With(zap.String("username", userName))
	log.Info("Revoking refresh token")

	if _, err := s.tokenRepo.FindByUserName(ctx, userName); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			log.Warn("Revoke attempt with no token record")
		}
		return err
	}

	if err := s.tokenRepo.Clear(ctx, userName); err != nil {
		log.Error("Failed to clear token record", zap.Error(err))
		return err
	}

	s.publishRevocation(ctx, userName)
	log.Info("Refresh token revoked")
	return nil
}

// ChangePassword delegates the password change to the credential store and
// signals downstream caches that existing sessions should be dropped.
func (s *authServiceImpl) ChangePassword(ctx context.Context, userName, currentPassword, newPassword string) error {
	log := s.logger.With(zap.String("username", userName))
	log.Info("Password change attempt")

	if err := s.userRepo.ChangePassword(ctx, userName, currentPassword, newPassword); err != nil {
		return err
	}

	s.publishRevocation(ctx, userName)
	log.Info("Password changed successfully")
	return nil
}

// ValidateAccessToken fully validates an access token, expiry included. Used
// by the auth middleware guarding the revoke path.
func (s *authServiceImpl) ValidateAccessToken(ctx context.Context, tokenString string) (*domain.Claims, error) {
	claims, err := s.codec.Validate(tokenString)
	if err != nil {
		s.logger.Debug("Access token validation failed", zap.Error(err))
		return nil, err
	}
	if claims.Name == "" {
		s.logger.Warn("Valid access token missing name claim")
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// publishRevocation is fire-and-forget: a failed publish is logged and never
// fails the request that triggered it.
func (s *authServiceImpl) publishRevocation(ctx context.Context, userName string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionRevoked(ctx, userName); err != nil {
		s.logger.Error("Failed to publish session revocation event", zap.Error(err), zap.String("username", userName))
	}
}
