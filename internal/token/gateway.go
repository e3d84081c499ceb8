package token

import (
	"onda-backend/internal/domain"

	"gorm.io/gorm"
)

// Gateway is the fungible-asset custody boundary: delegate, freeze, thaw and
// transfer over per-(owner,mint) token accounts. All methods operate inside
// the caller's transaction so a failed transition never leaves a half-applied
// custody change.
type Gateway interface {
	Account(tx *gorm.DB, owner, mint string) (*domain.TokenAccount, error)
	Approve(tx *gorm.DB, owner, mint, delegate string) error
	Revoke(tx *gorm.DB, owner, mint string) error
	Freeze(tx *gorm.DB, owner, mint string) error
	Thaw(tx *gorm.DB, owner, mint string) error
	Transfer(tx *gorm.DB, fromOwner, toOwner, mint string) error
	TransferDelegated(tx *gorm.DB, fromOwner, toOwner, mint, delegate string) error
	CloseAccount(tx *gorm.DB, owner, mint string) error
}

// LedgerGateway implements Gateway against the TokenAccounts table.
type LedgerGateway struct{}

func (LedgerGateway) Account(tx *gorm.DB, owner, mint string) (*domain.TokenAccount, error) {
	var acc domain.TokenAccount
	if err := tx.Where("owner = ? AND mint = ?", owner, mint).First(&acc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// Approve sets delegate over the holder's single token. Fails if the account
// is frozen or already delegated to someone else.
func (g LedgerGateway) Approve(tx *gorm.DB, owner, mint, delegate string) error {
	acc, err := g.Account(tx, owner, mint)
	if err != nil {
		return err
	}
	if acc.Frozen {
		return domain.ErrAccountFrozen
	}
	if acc.Delegate != nil && *acc.Delegate != delegate {
		return domain.ErrInvalidDelegate
	}
	acc.Delegate = &delegate
	acc.DelegatedAmount = acc.Amount
	return tx.Save(acc).Error
}

func (g LedgerGateway) Revoke(tx *gorm.DB, owner, mint string) error {
	acc, err := g.Account(tx, owner, mint)
	if err != nil {
		return err
	}
	if acc.Frozen {
		return domain.ErrAccountFrozen
	}
	acc.Delegate = nil
	acc.DelegatedAmount = 0
	return tx.Save(acc).Error
}

// Freeze requires a delegate: only the freeze authority set by Approve may
// lock the account.
func (g LedgerGateway) Freeze(tx *gorm.DB, owner, mint string) error {
	acc, err := g.Account(tx, owner, mint)
	if err != nil {
		return err
	}
	if acc.Delegate == nil {
		return domain.ErrInvalidDelegate
	}
	acc.Frozen = true
	return tx.Save(acc).Error
}

func (g LedgerGateway) Thaw(tx *gorm.DB, owner, mint string) error {
	acc, err := g.Account(tx, owner, mint)
	if err != nil {
		return err
	}
	acc.Frozen = false
	return tx.Save(acc).Error
}

// Transfer moves the token at the owner's will. Frozen or delegated accounts
// refuse: the custody ledger must release first.
func (g LedgerGateway) Transfer(tx *gorm.DB, fromOwner, toOwner, mint string) error {
	acc, err := g.Account(tx, fromOwner, mint)
	if err != nil {
		return err
	}
	if acc.Frozen {
		return domain.ErrAccountFrozen
	}
	if acc.Delegate != nil {
		return domain.ErrInvalidDelegate
	}
	return g.move(tx, acc, toOwner, mint)
}

// TransferDelegated moves the token on the delegate's authority, thawing
// first. The delegate must match the account's registered delegate exactly.
func (g LedgerGateway) TransferDelegated(tx *gorm.DB, fromOwner, toOwner, mint, delegate string) error {
	acc, err := g.Account(tx, fromOwner, mint)
	if err != nil {
		return err
	}
	if acc.Delegate == nil || *acc.Delegate != delegate {
		return domain.ErrInvalidDelegate
	}
	acc.Frozen = false
	acc.Delegate = nil
	acc.DelegatedAmount = 0
	return g.move(tx, acc, toOwner, mint)
}

// CloseAccount deletes an empty, unfrozen, undelegated account. Closing a
// non-empty delegated account must fail.
func (g LedgerGateway) CloseAccount(tx *gorm.DB, owner, mint string) error {
	acc, err := g.Account(tx, owner, mint)
	if err != nil {
		return err
	}
	if acc.Frozen {
		return domain.ErrAccountFrozen
	}
	if acc.Amount != 0 || acc.Delegate != nil {
		return domain.ErrInvalidState
	}
	return tx.Delete(acc).Error
}

func (g LedgerGateway) move(tx *gorm.DB, from *domain.TokenAccount, toOwner, mint string) error {
	if from.Amount != 1 {
		return domain.ErrInvalidState
	}
	if from.Owner == toOwner {
		return nil
	}
	from.Amount = 0
	if err := tx.Save(from).Error; err != nil {
		return err
	}

	var to domain.TokenAccount
	err := tx.Where("owner = ? AND mint = ?", toOwner, mint).First(&to).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&domain.TokenAccount{Owner: toOwner, Mint: mint, Amount: 1}).Error
	}
	if err != nil {
		return err
	}
	if to.Frozen {
		return domain.ErrAccountFrozen
	}
	to.Amount = 1
	return tx.Save(&to).Error
}
