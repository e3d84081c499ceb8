// Package custody implements the per-mint custody ledger: which products
// currently claim a pledged token and who holds redemption rights over it.
// Product services call Register/Deregister around their own transitions; the
// ledger is the single writer of delegate+freeze state for a mint.
package custody

import (
	"context"

	"onda-backend/internal/domain"
	"onda-backend/internal/metadata"
	"onda-backend/internal/token"

	"gorm.io/gorm"
)

// ManagerAddress is the delegate identity the ledger registers on the deposit
// token account for a mint.
func ManagerAddress(mint string) string {
	return "token_manager:" + mint
}

// EscrowOwner is the ledger-owned account that holds repossessed assets
// pending claim.
func EscrowOwner(mint string) string {
	return "escrow:" + mint
}

type Service struct {
	Tokens   token.Gateway
	Metadata metadata.Resolver
}

// Policy loads the collection policy gating a mint, resolving its verified
// collection through the metadata service.
func (s *Service) Policy(ctx context.Context, tx *gorm.DB, mint string) (*domain.CollectionPolicy, *metadata.Metadata, error) {
	md, err := s.Metadata.Resolve(ctx, mint)
	if err != nil {
		return nil, nil, err
	}
	if !md.CollectionVerified || md.CollectionMint == "" {
		return nil, nil, domain.ErrInvalidCollection
	}
	var policy domain.CollectionPolicy
	if err := tx.Where("mint = ?", md.CollectionMint).First(&policy).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, domain.ErrInvalidCollection
		}
		return nil, nil, err
	}
	return &policy, md, nil
}

// Register claims one product slot on the mint's ledger, creating the ledger
// and taking delegate+freeze over the issuer's token account on first
// registration. The policy gate runs before any state mutation.
func (s *Service) Register(ctx context.Context, tx *gorm.DB, mint, issuer string, kind domain.ProductKind) (*domain.TokenManager, error) {
	policy, md, err := s.Policy(ctx, tx, mint)
	if err != nil {
		return nil, err
	}
	if !policy.Enabled(kind) {
		return nil, domain.ErrPolicyDisabled
	}

	var manager domain.TokenManager
	err = tx.Where("mint = ?", mint).First(&manager).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		authority := issuer
		manager = domain.TokenManager{
			Mint:       mint,
			Collection: md.CollectionMint,
			Issuer:     issuer,
			Authority:  &authority,
		}
		manager.SetFlag(kind, true)
		if err := s.delegateAndFreeze(tx, issuer, mint); err != nil {
			return nil, err
		}
		if err := tx.Create(&manager).Error; err != nil {
			return nil, err
		}
		return &manager, nil
	case err != nil:
		return nil, err
	}

	if manager.Escrowed {
		return nil, domain.ErrInvalidState
	}
	if manager.Issuer != issuer {
		return nil, domain.ErrUnauthorized
	}
	if manager.Flag(kind) {
		return nil, domain.ErrAlreadyActive
	}
	manager.SetFlag(kind, true)
	if err := tx.Save(&manager).Error; err != nil {
		return nil, err
	}
	return &manager, nil
}

// Deregister clears one product slot. When the last slot clears and the asset
// is not escrowed pending claim, custody fully reverts: the holder's account
// is thawed, the delegation revoked and the ledger deleted.
func (s *Service) Deregister(tx *gorm.DB, mint, holder string, kind domain.ProductKind) error {
	manager, err := s.Manager(tx, mint)
	if err != nil {
		return err
	}
	if !manager.Flag(kind) {
		return domain.ErrProductNotActive
	}
	manager.SetFlag(kind, false)

	if manager.AnyActive() {
		return tx.Save(manager).Error
	}
	if manager.Escrowed {
		// Pending claim by the new authority; the ledger outlives its flags.
		return tx.Save(manager).Error
	}

	if err := s.Tokens.Thaw(tx, holder, mint); err != nil {
		return err
	}
	if err := s.Tokens.Revoke(tx, holder, mint); err != nil {
		return err
	}
	return tx.Delete(manager).Error
}

// Manager loads the ledger for a mint. A missing ledger where one is expected
// is a resource-state violation surfaced to the caller.
func (s *Service) Manager(tx *gorm.DB, mint string) (*domain.TokenManager, error) {
	var manager domain.TokenManager
	if err := tx.Where("mint = ?", mint).First(&manager).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &manager, nil
}

// TransferAuthority rotates redemption rights to a new party. Only a product
// module completing a default or exercise may call it, proven by the product
// flag still being registered on the ledger.
func (s *Service) TransferAuthority(tx *gorm.DB, mint, newAuthority string, kind domain.ProductKind) error {
	manager, err := s.Manager(tx, mint)
	if err != nil {
		return err
	}
	if !manager.Flag(kind) {
		return domain.ErrUnauthorized
	}
	manager.Authority = &newAuthority
	return tx.Save(manager).Error
}

// EscrowAsset moves the pledged token out of the holder's account into the
// ledger-owned escrow, keeping the default path infallible with respect to
// the new authority's own account state.
func (s *Service) EscrowAsset(tx *gorm.DB, mint, holder string) error {
	manager, err := s.Manager(tx, mint)
	if err != nil {
		return err
	}
	if manager.Escrowed {
		return domain.ErrInvalidState
	}
	if err := s.Tokens.TransferDelegated(tx, holder, EscrowOwner(mint), mint, ManagerAddress(mint)); err != nil {
		return err
	}
	manager.Escrowed = true
	return tx.Save(manager).Error
}

// Claim is the second phase of repossession or exercise: the recorded
// authority withdraws the escrowed asset into their own account and the
// ledger is destroyed.
func (s *Service) Claim(tx *gorm.DB, mint, caller string) error {
	manager, err := s.Manager(tx, mint)
	if err != nil {
		return err
	}
	if !manager.Escrowed {
		return domain.ErrInvalidState
	}
	if manager.AnyActive() {
		return domain.ErrInvalidState
	}
	if manager.Authority == nil || *manager.Authority != caller {
		return domain.ErrUnauthorized
	}
	if err := s.Tokens.Transfer(tx, EscrowOwner(mint), caller, mint); err != nil {
		return err
	}
	if err := s.Tokens.CloseAccount(tx, EscrowOwner(mint), mint); err != nil {
		return err
	}
	return tx.Delete(manager).Error
}

// delegateAndFreeze takes sole delegate and freeze authority over the
// issuer's deposit token account. Registering over an existing foreign
// delegate fails; re-registering over our own is a no-op.
func (s *Service) delegateAndFreeze(tx *gorm.DB, owner, mint string) error {
	acc, err := s.Tokens.Account(tx, owner, mint)
	if err != nil {
		return err
	}
	delegate := ManagerAddress(mint)
	if acc.Delegate != nil && *acc.Delegate == delegate && acc.Frozen {
		return nil
	}
	if err := s.Tokens.Approve(tx, owner, mint, delegate); err != nil {
		return err
	}
	return s.Tokens.Freeze(tx, owner, mint)
}

// FreezeWithHolder re-delegates and freezes the token in a new holder's
// account (rental takes move the asset to the borrower but keep it locked).
func (s *Service) FreezeWithHolder(tx *gorm.DB, holder, mint string) error {
	return s.delegateAndFreeze(tx, holder, mint)
}

// ReleaseHolder thaws and moves the token from one holder back to another
// under the ledger's delegation (rental recover).
func (s *Service) ReleaseHolder(tx *gorm.DB, fromHolder, toHolder, mint string) error {
	return s.Tokens.TransferDelegated(tx, fromHolder, toHolder, mint, ManagerAddress(mint))
}
