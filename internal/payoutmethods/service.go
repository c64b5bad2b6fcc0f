package payoutmethods

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddMethodInput carries the fields for a new payout destination. The
// type-specific fields are validated against Type.
type AddMethodInput struct {
	Type          string
	BankName      string
	AccountNumber string
	IFSCCode      string
	HolderName    string
	UPIID         string
}

// Service maintains a seller's payout destinations. At most one method per
// seller is the default at any time; the first registered method becomes it.
type Service interface {
	Add(ctx context.Context, sellerID uuid.UUID, input AddMethodInput) (*models.PayoutMethod, error)
	SetActive(ctx context.Context, sellerID, methodID uuid.UUID) (*models.PayoutMethod, error)
	Delete(ctx context.Context, sellerID, methodID uuid.UUID) error
	List(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutMethod, error)
	ActiveMethod(ctx context.Context, sellerID uuid.UUID) (*models.PayoutMethod, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout methods repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Add(ctx context.Context, sellerID uuid.UUID, input AddMethodInput) (*models.PayoutMethod, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	method, err := buildMethod(sellerID, input)
	if err != nil {
		return nil, err
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		count, err := repo.CountBySeller(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payout methods")
		}
		method.IsDefault = count == 0

		if _, err := repo.Create(ctx, method); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout method")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return method, nil
}

// SetActive moves the default flag to the given method. Clearing the old
// default and marking the new one commit together.
func (s *service) SetActive(ctx context.Context, sellerID, methodID uuid.UUID) (*models.PayoutMethod, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if methodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method id required")
	}

	var method *models.PayoutMethod
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadOwnedMethod(ctx, repo, sellerID, methodID)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, sellerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default payout method")
		}
		if err := repo.MarkDefault(ctx, loaded.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark default payout method")
		}
		loaded.IsDefault = true
		method = loaded
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return method, nil
}

// Delete removes a payout method. Deleting the default while alternatives
// exist is rejected; the seller must promote another method first. Deleting
// the sole method is allowed.
func (s *service) Delete(ctx context.Context, sellerID, methodID uuid.UUID) error {
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if methodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "method id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadOwnedMethod(ctx, repo, sellerID, methodID)
		if err != nil {
			return err
		}
		count, err := repo.CountBySeller(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payout methods")
		}
		if loaded.IsDefault && count > 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "set another payout method as default before deleting this one")
		}
		if err := repo.Delete(ctx, loaded.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payout method")
		}
		return nil
	})
}

func (s *service) List(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutMethod, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	methods, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout methods")
	}
	return methods, nil
}

// ActiveMethod returns the seller's default method, or nil when the seller
// has none registered.
func (s *service) ActiveMethod(ctx context.Context, sellerID uuid.UUID) (*models.PayoutMethod, error) {
	method, err := s.repo.FindDefaultBySeller(ctx, sellerID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default payout method")
	}
	return method, nil
}

func (s *service) loadOwnedMethod(ctx context.Context, repo Repository, sellerID, methodID uuid.UUID) (*models.PayoutMethod, error) {
	loaded, err := repo.FindByID(ctx, methodID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout method")
	}
	if loaded.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout method not found")
	}
	return loaded, nil
}

func buildMethod(sellerID uuid.UUID, input AddMethodInput) (*models.PayoutMethod, error) {
	methodType := enums.PayoutMethodType(strings.TrimSpace(input.Type))
	if !methodType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout method type")
	}

	method := &models.PayoutMethod{
		SellerID: sellerID,
		Type:     methodType,
	}

	switch methodType {
	case enums.PayoutMethodTypeBank:
		bankName := strings.TrimSpace(input.BankName)
		accountNumber := strings.TrimSpace(input.AccountNumber)
		ifsc := strings.TrimSpace(input.IFSCCode)
		holder := strings.TrimSpace(input.HolderName)
		if bankName == "" || accountNumber == "" || ifsc == "" || holder == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank methods require bank name, account number, ifsc code and holder name")
		}
		method.BankName = &bankName
		method.AccountNumber = &accountNumber
		method.IFSCCode = &ifsc
		method.HolderName = &holder
	case enums.PayoutMethodTypeUPI:
		upiID := strings.TrimSpace(input.UPIID)
		if upiID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "upi methods require a upi id")
		}
		method.UPIID = &upiID
	}

	return method, nil
}
