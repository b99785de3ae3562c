package services

//go:generate mockgen -source=directory.go -destination=directory_mock.go -package=services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrCustomerNotFound is returned when the customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrNonZeroBalance is returned when deleting a customer that still holds money.
	ErrNonZeroBalance = errors.New("customer accounts must have zero balance")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when no free login name could be derived for a new customer.
	ErrUsernameTaken = errors.New("username already taken")
)

const (
	usernameNameRunes = 10
	usernameAttempts  = 10
	passwordLength    = 10
	passwordAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789@#"
)

// CustomerStore persists customer profiles.
type CustomerStore interface {
	Create(ctx context.Context, c models.NewCustomer) (int64, error)
	GetByID(ctx context.Context, customerID int64) (*models.CustomerDB, error)
	Delete(ctx context.Context, customerID int64) (bool, error)
}

// AccountDirectory manages which accounts exist and who owns them.
type AccountDirectory interface {
	Open(ctx context.Context, customerID int64) (int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]models.AccountDB, error)
	IsOwnedBy(ctx context.Context, accountNo, customerID int64) (bool, error)
	DeleteByCustomer(ctx context.Context, customerID int64) (int64, error)
}

// LoginStore persists credentials.
type LoginStore interface {
	Create(ctx context.Context, customerID int64, username, passwordHash string) error
	GetByUsername(ctx context.Context, username string) (*models.LoginDB, error)
	DeleteByCustomer(ctx context.Context, customerID int64) error
}

// TokenGenerator issues access tokens for authenticated customers.
type TokenGenerator interface {
	Generate(ctx context.Context, customerID int64) (string, error)
}

// DirectoryService handles customers, their accounts and their credentials.
type DirectoryService struct {
	tx        Transactor
	customers CustomerStore
	accounts  AccountDirectory
	logins    LoginStore
	tokens    TokenGenerator
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(
	tx Transactor,
	customers CustomerStore,
	accounts AccountDirectory,
	logins LoginStore,
	tokens TokenGenerator,
) *DirectoryService {
	return &DirectoryService{
		tx:        tx,
		customers: customers,
		accounts:  accounts,
		logins:    logins,
		tokens:    tokens,
	}
}

// SignUp creates the customer, a zero-balance account and a login in one unit.
// The generated password is returned once and only its hash is stored.
func (s *DirectoryService) SignUp(ctx context.Context, c models.NewCustomer) (res *models.SignUpResult, err error) {
	defer observe("signup", time.Now(), &err)

	password, err := genPassword()
	if err != nil {
		logger.Log.Errorw("failed to generate password", "error", err)
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "error", err)
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customerID, err := s.customers.Create(ctx, c)
		if err != nil {
			return err
		}
		accountNo, err := s.accounts.Open(ctx, customerID)
		if err != nil {
			return err
		}
		username, err := s.freeUsername(ctx, genUsername(c.Name, customerID))
		if err != nil {
			return err
		}
		if err := s.logins.Create(ctx, customerID, username, string(hash)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %w", ErrUsernameTaken, err)
			}
			return err
		}
		res = &models.SignUpResult{
			CustomerID: customerID,
			AccountNo:  accountNo,
			Username:   username,
			Password:   password,
		}
		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to sign up", "name", c.Name, "error", err)
		return nil, err
	}

	logger.Log.Infow("customer signed up", "customer_id", res.CustomerID, "account_no", res.AccountNo)
	return res, nil
}

// Login checks the credentials and returns a token together with the customer id.
func (s *DirectoryService) Login(ctx context.Context, username, password string) (string, int64, error) {
	login, err := s.logins.GetByUsername(ctx, username)
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to get login", "username", username, "error", err)
		return "", 0, err
	}
	if login == nil {
		logger.Log.Warnw("unknown username", "username", username)
		return "", 0, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warnw("invalid credentials", "username", username)
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(ctx, login.CustomerID)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "error", err)
		return "", 0, err
	}

	return token, login.CustomerID, nil
}

// ListAccounts returns the customer's accounts in ascending account number order.
func (s *DirectoryService) ListAccounts(ctx context.Context, customerID int64) ([]models.AccountDB, error) {
	accounts, err := s.accounts.ListByCustomer(ctx, customerID)
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to list accounts", "customer_id", customerID, "error", err)
		return nil, err
	}
	if accounts == nil {
		accounts = []models.AccountDB{}
	}
	return accounts, nil
}

// OwnsAccount reports whether the account exists and belongs to the customer.
func (s *DirectoryService) OwnsAccount(ctx context.Context, accountNo, customerID int64) (bool, error) {
	owned, err := s.accounts.IsOwnedBy(ctx, accountNo, customerID)
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to check account owner", "account_no", accountNo, "customer_id", customerID, "error", err)
		return false, err
	}
	return owned, nil
}

// DeleteCustomer removes the customer with their accounts and logins. Every
// account must have a zero balance. Transaction records are kept.
func (s *DirectoryService) DeleteCustomer(ctx context.Context, customerID int64) (err error) {
	defer observe("delete_customer", time.Now(), &err)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		// listed in ascending order, which is also the lock order
		accounts, err := s.accounts.ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if !a.Balance.IsZero() {
				return ErrNonZeroBalance
			}
		}

		if err := s.logins.DeleteByCustomer(ctx, customerID); err != nil {
			return err
		}
		if _, err := s.accounts.DeleteByCustomer(ctx, customerID); err != nil {
			return err
		}
		existed, err := s.customers.Delete(ctx, customerID)
		if err != nil {
			return err
		}
		if !existed {
			return ErrCustomerNotFound
		}
		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to delete customer", "customer_id", customerID, "error", err)
		return err
	}

	logger.Log.Infow("customer deleted", "customer_id", customerID)
	return nil
}

// freeUsername returns base when no login uses it, otherwise the first free
// base_2, base_3 and so on.
func (s *DirectoryService) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i < usernameAttempts+2; i++ {
		login, err := s.logins.GetByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if login == nil {
			return candidate, nil
		}
		logger.Log.Warnw("username taken, trying another", "username", candidate)
		candidate = base + "_" + strconv.Itoa(i)
	}
	return "", ErrUsernameTaken
}

// genUsername builds a login name from the customer's name and id.
func genUsername(name string, customerID int64) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		if n == usernameNameRunes {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString(strconv.FormatInt(customerID, 10))
	return b.String()
}

func genPassword() (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, passwordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
