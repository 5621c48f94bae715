package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/hilo-match/hilo/internal/cache"
	"github.com/hilo-match/hilo/internal/db"
	apperr "github.com/hilo-match/hilo/internal/errors"
	"github.com/hilo-match/hilo/internal/repository"
)

// Sender delivers a verification code to an address.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log instead of sending mail. Default in
// development.
type LogSender struct {
	Log *slog.Logger
}

func (s *LogSender) Send(_ context.Context, email, code string) error {
	s.Log.Info("verification code issued", "email", email, "code", code)
	return nil
}

// CodeService implements passwordless sign-in: a short-lived numeric code is
// mailed to an allow-listed address, and verifying it creates the account on
// first contact.
type CodeService struct {
	cache          *cache.RedisCache
	users          *repository.UserRepository
	sender         Sender
	allowedDomains []string
	codeTTL        time.Duration
	rateWindow     time.Duration
	log            *slog.Logger
}

func NewCodeService(
	redisCache *cache.RedisCache,
	users *repository.UserRepository,
	sender Sender,
	allowedDomains []string,
	codeTTL, rateWindow time.Duration,
	log *slog.Logger,
) *CodeService {
	return &CodeService{
		cache:          redisCache,
		users:          users,
		sender:         sender,
		allowedDomains: allowedDomains,
		codeTTL:        codeTTL,
		rateWindow:     rateWindow,
		log:            log,
	}
}

// SendCode issues a fresh code for the address, subject to the domain
// allow-list and a per-address rate limit.
func (s *CodeService) SendCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !s.domainAllowed(email) {
		return apperr.Validation("email domain is not allowed")
	}

	ok, err := s.cache.AcquireCodeRateLimit(ctx, email, s.rateWindow)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("a code was sent recently, try again later")
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.cache.StoreCode(ctx, email, code, s.codeTTL); err != nil {
		return err
	}
	return s.sender.Send(ctx, email, code)
}

// VerifyCode checks the code and returns the user, creating the account on
// first sign-in. The code is single-use.
func (s *CodeService) VerifyCode(ctx context.Context, email, code string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.cache.GetCode(ctx, email)
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != strings.TrimSpace(code) {
		return nil, apperr.Validation("invalid or expired verification code")
	}
	if err := s.cache.DeleteCode(ctx, email); err != nil {
		return nil, err
	}

	// New accounts start unverified; card review advances them later.
	return s.users.GetOrCreateByEmail(ctx, email)
}

func (s *CodeService) domainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range s.allowedDomains {
		if strings.EqualFold(domain, allowed) {
			return true
		}
	}
	return false
}

// generateCode returns a uniform six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
