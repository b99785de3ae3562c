package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// memState is one immutable-once-published version of the memory store.
// Transaction slices may be shared between versions; appends always copy.
type memState struct {
	accounts     map[int64]models.AccountDB
	customers    map[int64]models.CustomerDB
	logins       map[string]models.LoginDB
	transactions map[int64][]models.TransactionRecord

	nextAccountNo  int64
	nextCustomerID int64
	nextLoginID    int64

	now time.Time // timestamp of the unit that produced this version
}

func newMemState() *memState {
	return &memState{
		accounts:       make(map[int64]models.AccountDB),
		customers:      make(map[int64]models.CustomerDB),
		logins:         make(map[string]models.LoginDB),
		transactions:   make(map[int64][]models.TransactionRecord),
		nextAccountNo:  models.FirstAccountNo,
		nextCustomerID: 1,
		nextLoginID:    1,
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		accounts:       make(map[int64]models.AccountDB, len(s.accounts)),
		customers:      make(map[int64]models.CustomerDB, len(s.customers)),
		logins:         make(map[string]models.LoginDB, len(s.logins)),
		transactions:   make(map[int64][]models.TransactionRecord, len(s.transactions)),
		nextAccountNo:  s.nextAccountNo,
		nextCustomerID: s.nextCustomerID,
		nextLoginID:    s.nextLoginID,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.logins {
		c.logins[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	return c
}

// MemoryStore is an in-process ledger store. Atomic units run one at a time on
// a private copy of the committed state which is published on success, so
// readers only ever see committed versions.
type MemoryStore struct {
	writeMu   sync.Mutex   // serializes atomic units
	mu        sync.RWMutex // guards committed
	committed *memState
	clock     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the clock used to timestamp atomic units.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.clock = clock }
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{committed: newMemState(), clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type memTxKey struct{}

// WithinTx runs fn as one atomic unit. Nested calls join the outer unit.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.snapshot().clone()
	work.now = s.clock()

	if err := fn(context.WithValue(ctx, memTxKey{}, work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) snapshot() *memState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

// read runs fn against the unit bound to ctx, or the latest committed version.
func (s *MemoryStore) read(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return fn(st)
	}
	return fn(s.snapshot())
}

// write runs fn inside the unit bound to ctx, or in a unit of its own.
func (s *MemoryStore) write(ctx context.Context, fn func(st *memState) error) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(memTxKey{}).(*memState))
	})
}

// Accounts returns the account view of the store.
func (s *MemoryStore) Accounts() *MemoryAccounts { return &MemoryAccounts{s: s} }

// Transactions returns the transaction view of the store.
func (s *MemoryStore) Transactions() *MemoryTransactions { return &MemoryTransactions{s: s} }

// Customers returns the customer view of the store.
func (s *MemoryStore) Customers() *MemoryCustomers { return &MemoryCustomers{s: s} }

// Logins returns the login view of the store.
func (s *MemoryStore) Logins() *MemoryLogins { return &MemoryLogins{s: s} }

// MemoryAccounts mirrors AccountRepository on a MemoryStore.
type MemoryAccounts struct{ s *MemoryStore }

func (r *MemoryAccounts) Open(ctx context.Context, customerID int64) (int64, error) {
	var accountNo int64
	err := r.s.write(ctx, func(st *memState) error {
		accountNo = st.nextAccountNo
		st.nextAccountNo++
		st.accounts[accountNo] = models.AccountDB{
			AccountNo:  accountNo,
			Balance:    decimal.Zero,
			CustomerID: customerID,
			CreatedAt:  st.now,
		}
		return nil
	})
	return accountNo, err
}

func (r *MemoryAccounts) GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.s.read(ctx, func(st *memState) error {
		a, ok := st.accounts[accountNo]
		if !ok {
			return sql.ErrNoRows
		}
		balance = a.Balance
		return nil
	})
	return balance, err
}

func (r *MemoryAccounts) SetBalance(ctx context.Context, accountNo int64, balance decimal.Decimal) error {
	return r.s.write(ctx, func(st *memState) error {
		a, ok := st.accounts[accountNo]
		if !ok {
			return sql.ErrNoRows
		}
		a.Balance = balance
		st.accounts[accountNo] = a
		return nil
	})
}

func (r *MemoryAccounts) Exists(ctx context.Context, accountNo int64) (bool, error) {
	var exists bool
	err := r.s.read(ctx, func(st *memState) error {
		_, exists = st.accounts[accountNo]
		return nil
	})
	return exists, err
}

func (r *MemoryAccounts) ListByCustomer(ctx context.Context, customerID int64) ([]models.AccountDB, error) {
	var accounts []models.AccountDB
	err := r.s.read(ctx, func(st *memState) error {
		for _, a := range st.accounts {
			if a.CustomerID == customerID {
				accounts = append(accounts, a)
			}
		}
		return nil
	})
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountNo < accounts[j].AccountNo })
	return accounts, err
}

func (r *MemoryAccounts) IsOwnedBy(ctx context.Context, accountNo, customerID int64) (bool, error) {
	var owned bool
	err := r.s.read(ctx, func(st *memState) error {
		a, ok := st.accounts[accountNo]
		owned = ok && a.CustomerID == customerID
		return nil
	})
	return owned, err
}

func (r *MemoryAccounts) DeleteByCustomer(ctx context.Context, customerID int64) (int64, error) {
	var removed int64
	err := r.s.write(ctx, func(st *memState) error {
		for no, a := range st.accounts {
			if a.CustomerID == customerID {
				delete(st.accounts, no)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// MemoryTransactions mirrors TransactionRepository on a MemoryStore.
type MemoryTransactions struct{ s *MemoryStore }

func (r *MemoryTransactions) NextSequenceNumber(ctx context.Context, accountNo int64) (int64, error) {
	var next int64
	err := r.s.read(ctx, func(st *memState) error {
		a, ok := st.accounts[accountNo]
		if !ok {
			return sql.ErrNoRows
		}
		next = a.LastTxnNo + 1
		return nil
	})
	return next, err
}

func (r *MemoryTransactions) Append(ctx context.Context, accountNo int64, txnType models.TransactionType, amount decimal.Decimal) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := r.s.write(ctx, func(st *memState) error {
		a, ok := st.accounts[accountNo]
		if !ok {
			return sql.ErrNoRows
		}
		a.LastTxnNo++
		st.accounts[accountNo] = a

		rec = models.TransactionRecord{
			AccountNo: accountNo,
			TxnNo:     a.LastTxnNo,
			Type:      txnType,
			Amount:    amount,
			CreatedAt: st.now,
		}
		old := st.transactions[accountNo]
		st.transactions[accountNo] = append(old[:len(old):len(old)], rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MemoryTransactions) ListByAccount(ctx context.Context, accountNo int64) ([]models.TransactionRecord, error) {
	records := []models.TransactionRecord{}
	err := r.s.read(ctx, func(st *memState) error {
		records = append(records, st.transactions[accountNo]...)
		return nil
	})
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].TxnNo > records[j].TxnNo
	})
	return records, err
}

// MemoryCustomers mirrors CustomerRepository on a MemoryStore.
type MemoryCustomers struct{ s *MemoryStore }

func (r *MemoryCustomers) Create(ctx context.Context, c models.NewCustomer) (int64, error) {
	var id int64
	err := r.s.write(ctx, func(st *memState) error {
		id = st.nextCustomerID
		st.nextCustomerID++
		st.customers[id] = models.CustomerDB{
			CustomerID: id,
			Name:       c.Name,
			Email:      c.Email,
			Phone:      c.Phone,
			Address:    c.Address,
			CreatedAt:  st.now,
		}
		return nil
	})
	return id, err
}

func (r *MemoryCustomers) GetByID(ctx context.Context, customerID int64) (*models.CustomerDB, error) {
	var c *models.CustomerDB
	err := r.s.read(ctx, func(st *memState) error {
		if found, ok := st.customers[customerID]; ok {
			c = &found
		}
		return nil
	})
	return c, err
}

func (r *MemoryCustomers) Delete(ctx context.Context, customerID int64) (bool, error) {
	var existed bool
	err := r.s.write(ctx, func(st *memState) error {
		_, existed = st.customers[customerID]
		delete(st.customers, customerID)
		return nil
	})
	return existed, err
}

// MemoryLogins mirrors LoginRepository on a MemoryStore.
type MemoryLogins struct{ s *MemoryStore }

// errDuplicateUsername mimics the unique constraint on logins.username.
var errDuplicateUsername = errors.New("duplicate username")

func (r *MemoryLogins) Create(ctx context.Context, customerID int64, username, passwordHash string) error {
	return r.s.write(ctx, func(st *memState) error {
		if _, ok := st.logins[username]; ok {
			return errDuplicateUsername
		}
		st.logins[username] = models.LoginDB{
			LoginID:      st.nextLoginID,
			Username:     username,
			PasswordHash: passwordHash,
			CustomerID:   customerID,
		}
		st.nextLoginID++
		return nil
	})
}

func (r *MemoryLogins) GetByUsername(ctx context.Context, username string) (*models.LoginDB, error) {
	var l *models.LoginDB
	err := r.s.read(ctx, func(st *memState) error {
		if found, ok := st.logins[username]; ok {
			l = &found
		}
		return nil
	})
	return l, err
}

func (r *MemoryLogins) DeleteByCustomer(ctx context.Context, customerID int64) error {
	return r.s.write(ctx, func(st *memState) error {
		for name, l := range st.logins {
			if l.CustomerID == customerID {
				delete(st.logins, name)
			}
		}
		return nil
	})
}
