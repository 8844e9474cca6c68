package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
)

// Service - транзакционный движок кошелька. Единственный писатель балансов
// и леджера; все мутации проходят через общий шаблон run/attempt.
type Service struct {
	accounts ports.AccountRepository
	assets   ports.AssetTypeRepository
	wallets  ports.WalletRepository
	ledger   ports.LedgerRepository
	idem     *idempotencyCache
	uow      ports.UnitOfWork
	log      *slog.Logger
}

// NewService wires the engine. idempotencyTTL bounds how long cached
// responses are replayed.
func NewService(
	accounts ports.AccountRepository,
	assets ports.AssetTypeRepository,
	wallets ports.WalletRepository,
	ledger ports.LedgerRepository,
	idemRepo ports.IdempotencyRepository,
	uow ports.UnitOfWork,
	idempotencyTTL time.Duration,
	log *slog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		assets:   assets,
		wallets:  wallets,
		ledger:   ledger,
		idem:     newIdempotencyCache(idemRepo, idempotencyTTL, log),
		uow:      uow,
		log:      log,
	}
}

// Outcome is the result of a mutating flow. Body holds the exact bytes to
// serve (and the bytes cached under the idempotency key); Duplicate marks a
// replay of a previously committed request.
type Outcome struct {
	Body      []byte
	Duplicate bool
}

// ============================================
// Mutating flows
// ============================================

// TopUp credits a user wallet from the Treasury. The real-money payment is
// assumed settled externally; this records its virtual-credit side.
func (s *Service) TopUp(ctx context.Context, cmd dtos.TopUpCommand) (*Outcome, error) {
	return s.run(ctx, topUpFlow, mutationRequest{
		UserAccountID:  cmd.UserAccountID,
		AssetTypeID:    cmd.AssetTypeID,
		Amount:         cmd.Amount,
		Description:    cmd.Description,
		Extra:          cmd.PaymentReference,
		IdempotencyKey: cmd.IdempotencyKey,
	})
}

// IssueBonus credits a user wallet from the Bonus Pool.
func (s *Service) IssueBonus(ctx context.Context, cmd dtos.BonusCommand) (*Outcome, error) {
	return s.run(ctx, bonusFlow, mutationRequest{
		UserAccountID:  cmd.UserAccountID,
		AssetTypeID:    cmd.AssetTypeID,
		Amount:         cmd.Amount,
		Description:    cmd.Description,
		Extra:          cmd.Reason,
		IdempotencyKey: cmd.IdempotencyKey,
	})
}

// Spend debits a user wallet into the Revenue wallet.
func (s *Service) Spend(ctx context.Context, cmd dtos.SpendCommand) (*Outcome, error) {
	return s.run(ctx, spendFlow, mutationRequest{
		UserAccountID:  cmd.UserAccountID,
		AssetTypeID:    cmd.AssetTypeID,
		Amount:         cmd.Amount,
		Description:    cmd.Description,
		Extra:          cmd.ItemReference,
		IdempotencyKey: cmd.IdempotencyKey,
	})
}

// run executes one mutating flow and retries exactly once when storing the
// idempotency record loses a uniqueness race. The retry re-runs the whole
// attempt in a fresh transaction and is expected to hit the cached response
// written by the concurrent winner.
func (s *Service) run(ctx context.Context, flow flowDescriptor, req mutationRequest) (*Outcome, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	outcome, err := s.attempt(ctx, flow, req)
	if stderrors.Is(err, errors.ErrIdempotencyRace) {
		s.log.WarnContext(ctx, "idempotency key race lost, retrying",
			"endpoint", flow.Endpoint,
			"idempotency_key", req.IdempotencyKey,
		)
		outcome, err = s.attempt(ctx, flow, req)
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "wallet operation completed",
		"endpoint", flow.Endpoint,
		"account_id", req.UserAccountID,
		"asset_type_id", req.AssetTypeID,
		"amount", req.Amount,
		"duplicate", outcome.Duplicate,
	)
	return outcome, nil
}

// attempt runs the flow template inside one store transaction:
//
//  1. Idempotency lookup (hit → return the cached bytes, commit)
//  2. Validate the account and asset type
//  3. Lock the two wallets in the flow's order and check source funds
//  4. Apply the double-entry pair (debit, then credit)
//  5. Marshal the response and store it under the idempotency key
func (s *Service) attempt(ctx context.Context, flow flowDescriptor, req mutationRequest) (*Outcome, error) {
	var outcome *Outcome

	err := s.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Idempotency lookup. Committing on a hit lets the lazy prune of
		// an expired record persist.
		if req.IdempotencyKey != "" {
			cached, err := s.idem.Lookup(txCtx, req.IdempotencyKey, flow.Endpoint)
			if err != nil {
				return err
			}
			if cached != nil {
				outcome = &Outcome{Body: cached, Duplicate: true}
				return nil
			}
		}

		// 2. Participants.
		account, err := s.activeAccount(txCtx, req.UserAccountID)
		if err != nil {
			return err
		}
		asset, err := s.activeAssetType(txCtx, req.AssetTypeID)
		if err != nil {
			return err
		}
		system, err := s.systemAccount(txCtx, flow.SystemAccount)
		if err != nil {
			return err
		}

		// 3. Locks. System wallet first, except for spend: the source is
		// always locked first, and the source holds the funds we check.
		var source, dest *entities.Wallet
		if flow.UserIsSource {
			source, err = s.lockWallet(txCtx, account.ID, asset.ID)
			if err != nil {
				return err
			}
			if source.Balance.LessThan(req.Amount) {
				return errors.NewInsufficientFunds(source.Balance, req.Amount, asset.Symbol)
			}
			dest, err = s.lockWallet(txCtx, system.ID, asset.ID)
			if err != nil {
				return err
			}
		} else {
			source, err = s.lockWallet(txCtx, system.ID, asset.ID)
			if err != nil {
				return err
			}
			if source.Balance.LessThan(req.Amount) {
				return errors.NewInsufficientFunds(source.Balance, req.Amount, asset.Symbol)
			}
			dest, err = s.lockWallet(txCtx, account.ID, asset.ID)
			if err != nil {
				return err
			}
		}

		// 4. Double-entry pair. One reference id groups both entries; their
		// signed amounts sum to zero.
		referenceID := uuid.New()
		metadata, err := flowMetadata(flow.MetadataKey, req.Extra)
		if err != nil {
			return err
		}

		debit, err := s.applyEntry(txCtx, flow, source, referenceID,
			req.Amount.Neg(), flow.debitDescription(req, asset.Symbol), req.IdempotencyKey, metadata)
		if err != nil {
			return err
		}
		credit, err := s.applyEntry(txCtx, flow, dest, referenceID,
			req.Amount, flow.creditDescription(req, asset.Symbol), req.IdempotencyKey, metadata)
		if err != nil {
			return err
		}

		// 5. Response. balance_after reports the user-side entry.
		userEntry := credit
		if flow.UserIsSource {
			userEntry = debit
		}
		body, err := json.Marshal(dtos.TransactionResponse{
			Status:          "success",
			ReferenceID:     referenceID,
			TransactionType: string(flow.TxType),
			Amount:          req.Amount,
			BalanceAfter:    userEntry.BalanceAfter,
			Message:         flow.successMessage(req.Amount, asset.Symbol),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}

		if req.IdempotencyKey != "" {
			if err := s.idem.Store(txCtx, req.IdempotencyKey, flow.Endpoint, body); err != nil {
				return err
			}
		}

		outcome = &Outcome{Body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// applyEntry moves amount (signed) through one wallet: recompute the balance,
// persist the snapshot, append the ledger entry. The pre-check mirrors the
// database CHECK constraint so a bug cannot silently overdraw a wallet.
func (s *Service) applyEntry(
	ctx context.Context,
	flow flowDescriptor,
	wallet *entities.Wallet,
	referenceID uuid.UUID,
	amount decimal.Decimal,
	description string,
	idempotencyKey string,
	metadata string,
) (*entities.Transaction, error) {
	newBalance := wallet.Balance.Add(amount)
	if newBalance.IsNegative() {
		return nil, &errors.NegativeBalanceError{WalletID: wallet.ID, ResultingBalance: newBalance}
	}

	wallet.Balance = newBalance
	wallet.Version++
	wallet.UpdatedAt = time.Now().UTC()
	if err := s.wallets.UpdateBalance(ctx, wallet); err != nil {
		return nil, err
	}

	entry := entities.NewLedgerEntry(
		referenceID, flow.TxType, wallet.ID,
		amount, newBalance, description, idempotencyKey, metadata,
	)
	if err := s.ledger.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ============================================
// Participant resolution
// ============================================

func (s *Service) activeAccount(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.AccountNotFoundError{AccountID: id.String()}
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !account.IsActive {
		return nil, &errors.AccountNotFoundError{AccountID: id.String()}
	}
	return account, nil
}

func (s *Service) activeAssetType(ctx context.Context, id uuid.UUID) (*entities.AssetType, error) {
	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.AssetTypeNotFoundError{AssetTypeID: id}
		}
		return nil, fmt.Errorf("failed to load asset type: %w", err)
	}
	if !asset.IsActive {
		return nil, &errors.AssetTypeNotFoundError{AssetTypeID: id}
	}
	return asset, nil
}

func (s *Service) systemAccount(ctx context.Context, username string) (*entities.Account, error) {
	account, err := s.accounts.FindSystemByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.AccountNotFoundError{AccountID: "system:" + username}
		}
		return nil, fmt.Errorf("failed to load system account %s: %w", username, err)
	}
	return account, nil
}

func (s *Service) lockWallet(ctx context.Context, accountID, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	wallet, err := s.wallets.LockByAccountAndAsset(ctx, accountID, assetTypeID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.WalletNotFoundError{AccountID: accountID, AssetTypeID: assetTypeID}
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return wallet, nil
}

// flowMetadata serializes the flow-specific reference for the ledger pair.
// Empty when the caller supplied nothing.
func flowMetadata(key, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	raw, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(raw), nil
}

// VerifySystemAccounts checks that the three well-known system accounts are
// seeded. Called once at startup; a missing account is a deployment error.
func (s *Service) VerifySystemAccounts(ctx context.Context) error {
	for _, username := range []string{
		entities.SystemTreasury,
		entities.SystemBonusPool,
		entities.SystemRevenue,
	} {
		if _, err := s.accounts.FindSystemByUsername(ctx, username); err != nil {
			return fmt.Errorf("system account %q is not seeded: %w", username, err)
		}
	}
	return nil
}
