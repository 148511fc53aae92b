package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/minledger/minledger/internal/account"
	"github.com/minledger/minledger/internal/balance"
	"github.com/minledger/minledger/internal/event"
	"github.com/minledger/minledger/internal/notification"
)

const tracerName = "github.com/minledger/minledger/internal/ledger"

// Service records ledger movements as events and refreshes the balance
// snapshot of every account an operation touches.
//
// Operations on the same account are serialized; operations on different
// accounts run in parallel. Reset excludes everything else.
type Service struct {
	accounts account.Repository
	events   event.Store
	engine   *balance.Engine

	locks   *locker
	resetMu sync.RWMutex

	now      func() time.Time
	logger   *slog.Logger
	notifier notification.Notifier
	tracer   trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithNotifier publishes every committed event.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithTracerProvider traces operations on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

// NewService wires a ledger over an account repository and an event store.
func NewService(accounts account.Repository, events event.Store, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		events:   events,
		engine:   balance.NewEngine(events, events, events),
		locks:    newLocker(),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransferResult holds both accounts after a transfer.
type TransferResult struct {
	Origin      account.Account
	Destination account.Account
}

// Deposit credits destination, creating the account on first use.
func (s *Service) Deposit(ctx context.Context, destination string, amount int64) (acct account.Account, err error) {
	ctx, span := s.startSpan(ctx, "ledger.Deposit", attribute.String("ledger.destination", destination), attribute.Int64("ledger.amount", amount))
	defer func() { endSpan(span, err) }()

	if err := validateIDs(destination); err != nil {
		return account.Account{}, err
	}
	if err := validateAmount(amount); err != nil {
		return account.Account{}, err
	}

	unlock := s.lock(destination)
	defer unlock()

	exists, err := s.exists(ctx, destination)
	if err != nil {
		return account.Account{}, err
	}
	if err := s.checkHeadroom(ctx, destination, amount); err != nil {
		return account.Account{}, err
	}
	if err := ctx.Err(); err != nil {
		return account.Account{}, err
	}

	// The account row is written only after the event so a failed append
	// leaves no placeholder behind.
	dep, err := s.events.SaveDeposit(ctx, event.Deposit{Destination: destination, Amount: amount, Created: s.now()})
	if err != nil {
		s.logger.ErrorContext(ctx, "append deposit failed", slog.String("destination", destination), slog.Any("error", err))
		return account.Account{}, storageError("append deposit", err)
	}
	s.publish(ctx, dep)

	acct, err = s.refresh(ctx, destination)
	if err != nil {
		return account.Account{}, err
	}
	if !exists {
		s.logger.DebugContext(ctx, "account created", slog.String("account_id", destination))
	}
	s.logger.DebugContext(ctx, "deposit committed",
		slog.String("destination", destination),
		slog.Int64("amount", amount),
		slog.Int64("balance", acct.Balance),
	)
	return acct, nil
}

// Withdraw debits origin, which must already exist.
func (s *Service) Withdraw(ctx context.Context, origin string, amount int64) (acct account.Account, err error) {
	ctx, span := s.startSpan(ctx, "ledger.Withdraw", attribute.String("ledger.origin", origin), attribute.Int64("ledger.amount", amount))
	defer func() { endSpan(span, err) }()

	if err := validateIDs(origin); err != nil {
		return account.Account{}, err
	}
	if err := validateAmount(amount); err != nil {
		return account.Account{}, err
	}

	unlock := s.lock(origin)
	defer unlock()

	if err := s.require(ctx, origin); err != nil {
		return account.Account{}, err
	}
	if err := s.checkHeadroom(ctx, origin, -amount); err != nil {
		return account.Account{}, err
	}
	if err := ctx.Err(); err != nil {
		return account.Account{}, err
	}

	w, err := s.events.SaveWithdraw(ctx, event.Withdraw{Origin: origin, Amount: amount, Created: s.now()})
	if err != nil {
		s.logger.ErrorContext(ctx, "append withdraw failed", slog.String("origin", origin), slog.Any("error", err))
		return account.Account{}, storageError("append withdraw", err)
	}
	s.publish(ctx, w)

	acct, err = s.refresh(ctx, origin)
	if err != nil {
		return account.Account{}, err
	}
	s.logger.DebugContext(ctx, "withdraw committed",
		slog.String("origin", origin),
		slog.Int64("amount", amount),
		slog.Int64("balance", acct.Balance),
	)
	return acct, nil
}

// Transfer moves amount from origin, which must exist, to destination, which
// is created when missing. It appends a single transfer event.
func (s *Service) Transfer(ctx context.Context, origin, destination string, amount int64) (res TransferResult, err error) {
	ctx, span := s.startSpan(ctx, "ledger.Transfer",
		attribute.String("ledger.origin", origin),
		attribute.String("ledger.destination", destination),
		attribute.Int64("ledger.amount", amount),
	)
	defer func() { endSpan(span, err) }()

	if err := validateIDs(origin, destination); err != nil {
		return TransferResult{}, err
	}
	if err := validateAmount(amount); err != nil {
		return TransferResult{}, err
	}

	unlock := s.lock(origin, destination)
	defer unlock()

	if err := s.require(ctx, origin); err != nil {
		return TransferResult{}, err
	}
	// A self-transfer credits before it debits, so only the credit can overflow.
	if origin != destination {
		if err := s.checkHeadroom(ctx, origin, -amount); err != nil {
			return TransferResult{}, err
		}
	}
	if err := s.checkHeadroom(ctx, destination, amount); err != nil {
		return TransferResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return TransferResult{}, err
	}

	tr, err := s.events.SaveTransfer(ctx, event.Transfer{Origin: origin, Destination: destination, Amount: amount, Created: s.now()})
	if err != nil {
		s.logger.ErrorContext(ctx, "append transfer failed",
			slog.String("origin", origin),
			slog.String("destination", destination),
			slog.Any("error", err),
		)
		return TransferResult{}, storageError("append transfer", err)
	}
	s.publish(ctx, tr)

	res.Origin, err = s.refresh(ctx, origin)
	if err != nil {
		return TransferResult{}, err
	}
	if destination == origin {
		res.Destination = res.Origin
	} else if res.Destination, err = s.refresh(ctx, destination); err != nil {
		return TransferResult{}, err
	}

	s.logger.DebugContext(ctx, "transfer committed",
		slog.String("origin", origin),
		slog.String("destination", destination),
		slog.Int64("amount", amount),
	)
	return res, nil
}

// Balance returns the last persisted balance of accountID. It does not
// replay events.
func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	acct, err := s.get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Accounts lists every account with its persisted balance.
func (s *Service) Accounts(ctx context.Context) ([]account.Account, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, storageError("list accounts", err)
	}
	return accounts, nil
}

// OpenAccount creates an empty account under a freshly allocated id.
func (s *Service) OpenAccount(ctx context.Context) (account.Account, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	acct, err := s.accounts.Save(ctx, account.Account{})
	if err != nil {
		return account.Account{}, storageError("open account", err)
	}
	s.logger.DebugContext(ctx, "account opened", slog.String("account_id", acct.ID))
	return acct, nil
}

// History replays the events of accountID in order, with running balances.
func (s *Service) History(ctx context.Context, accountID string) ([]balance.Entry, error) {
	unlock := s.lock(accountID)
	defer unlock()

	if err := s.require(ctx, accountID); err != nil {
		return nil, err
	}
	entries, err := s.engine.Entries(ctx, accountID)
	if err != nil {
		return nil, storageError("replay events", err)
	}
	return entries, nil
}

// Reset wipes the whole ledger: every account and every event.
func (s *Service) Reset(ctx context.Context) error {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()

	if err := s.events.Reset(ctx); err != nil {
		return storageError("reset events", err)
	}
	if err := s.accounts.Reset(ctx); err != nil {
		return storageError("reset accounts", err)
	}
	s.logger.InfoContext(ctx, "ledger reset")
	return nil
}

// ResetAccounts drops account snapshots but keeps the event logs. An account
// recreated afterwards folds its pre-reset history again on its next
// mutation.
func (s *Service) ResetAccounts(ctx context.Context) error {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()

	if err := s.accounts.Reset(ctx); err != nil {
		return storageError("reset accounts", err)
	}
	s.logger.InfoContext(ctx, "account snapshots reset")
	return nil
}

func (s *Service) lock(ids ...string) func() {
	s.resetMu.RLock()
	release := s.locks.Lock(ids...)
	return func() {
		release()
		s.resetMu.RUnlock()
	}
}

func (s *Service) get(ctx context.Context, id string) (account.Account, error) {
	acct, err := s.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, fmt.Errorf("account %s: %w", id, ErrAccountNotFound)
		}
		return account.Account{}, storageError("load account", err)
	}
	return acct, nil
}

func (s *Service) require(ctx context.Context, id string) error {
	_, err := s.get(ctx, id)
	return err
}

func (s *Service) exists(ctx context.Context, id string) (bool, error) {
	_, err := s.get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrAccountNotFound):
		return false, nil
	default:
		return false, err
	}
}

// checkHeadroom rejects a movement that would push the folded balance of id
// out of the int64 range. The caller holds the account lock.
func (s *Service) checkHeadroom(ctx context.Context, id string, delta int64) error {
	bal, err := s.engine.Balance(ctx, id)
	if err != nil {
		if errors.Is(err, balance.ErrOverflow) {
			return fmt.Errorf("account %s: %w: %w", id, ErrInvalidAmount, err)
		}
		s.logger.ErrorContext(ctx, "balance replay failed", slog.String("account_id", id), slog.Any("error", err))
		return storageError("replay events", err)
	}
	if _, err := balance.Add(bal, delta); err != nil {
		return fmt.Errorf("account %s: %w: %w", id, ErrInvalidAmount, err)
	}
	return nil
}

// refresh folds the account's events and overwrites its snapshot. The caller
// holds the account lock.
func (s *Service) refresh(ctx context.Context, id string) (account.Account, error) {
	bal, err := s.engine.Balance(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "balance replay failed", slog.String("account_id", id), slog.Any("error", err))
		return account.Account{}, storageError("replay events", err)
	}
	acct, err := s.accounts.Save(ctx, account.Account{ID: id, Balance: bal})
	if err != nil {
		s.logger.ErrorContext(ctx, "save account failed", slog.String("account_id", id), slog.Any("error", err))
		return account.Account{}, storageError("save account", err)
	}
	return acct, nil
}

func (s *Service) publish(ctx context.Context, ev event.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.FromEvent(ev)); err != nil {
		s.logger.WarnContext(ctx, "notification failed", slog.Uint64("seq", ev.Sequence()), slog.Any("error", err))
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
