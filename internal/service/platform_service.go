package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/repository"
	"github.com/maheshrc27/socialdesk/internal/transfer"
	"github.com/maheshrc27/socialdesk/pkg/utils"
)

type PlatformService interface {
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Create(ctx context.Context, userID int64, sc *transfer.SocialAccountCreation) (*models.SocialAccount, error)
	SetActive(ctx context.Context, userID, accountID int64, active bool) (*models.SocialAccount, error)
	Delete(ctx context.Context, userID, accountID int64) error
	FindOwner(ctx context.Context, platform, externalID string) (*models.SocialAccount, error)
	AccessToken(ctx context.Context, accountID int64) (string, error)
}

type platformService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
	key []byte
}

func NewPlatformService(cfg config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
		key: utils.DeriveKey(cfg.SecretKey),
	}
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}
	return accounts, nil
}

func (s *platformService) Create(ctx context.Context, userID int64, sc *transfer.SocialAccountCreation) (*models.SocialAccount, error) {
	platform := strings.ToLower(strings.TrimSpace(sc.Platform))
	if !models.ValidPlatform(platform) {
		return nil, validationf("Invalid platform: %s", sc.Platform)
	}

	name := strings.TrimSpace(sc.AccountName)
	accountID := strings.TrimSpace(sc.AccountID)
	if name == "" || accountID == "" {
		return nil, validationf("Missing required fields: platform, accountName, accountId")
	}

	account := &models.SocialAccount{
		UserID:      userID,
		Platform:    platform,
		AccountName: name,
		AccountID:   accountID,
		PageID:      strings.TrimSpace(sc.PageID),
		IsActive:    true,
	}

	if sc.AccessToken != "" {
		encrypted, err := utils.Encrypt([]byte(sc.AccessToken), s.key)
		if err != nil {
			return nil, fmt.Errorf("error encrypting access token: %w", err)
		}
		account.AccessToken = encrypted
	}

	if _, err := s.sa.Create(ctx, nil, account); err != nil {
		return nil, fmt.Errorf("error saving social account: %w", err)
	}

	return account, nil
}

func (s *platformService) SetActive(ctx context.Context, userID, accountID int64, active bool) (*models.SocialAccount, error) {
	if err := s.checkOwner(ctx, userID, accountID); err != nil {
		return nil, err
	}

	if err := s.sa.SetActive(ctx, accountID, active); err != nil {
		return nil, fmt.Errorf("error updating social account: %w", err)
	}

	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting social account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// Delete leaves posts alone; they keep their snapshot of the account.
func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	if err := s.checkOwner(ctx, userID, accountID); err != nil {
		return err
	}

	if err := s.sa.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("error removing social account: %w", err)
	}
	return nil
}

func (s *platformService) checkOwner(ctx context.Context, userID, accountID int64) error {
	if userID == 0 || accountID == 0 {
		return ErrNotFound
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return fmt.Errorf("error checking social account: %w", err)
	}

	if !isValid {
		slog.Info("social account not found for user", "account_id", accountID, "user_id", userID)
		return ErrNotFound
	}
	return nil
}

func (s *platformService) FindOwner(ctx context.Context, platform, externalID string) (*models.SocialAccount, error) {
	account, err := s.sa.FindByExternalID(ctx, strings.ToLower(platform), externalID)
	if err != nil {
		return nil, fmt.Errorf("error resolving account owner: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// AccessToken returns the decrypted credential for an external publisher.
func (s *platformService) AccessToken(ctx context.Context, accountID int64) (string, error) {
	account, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("error getting social account: %w", err)
	}
	if account == nil {
		return "", ErrNotFound
	}
	if account.AccessToken == "" {
		return "", nil
	}
	return utils.Decrypt(account.AccessToken, s.key)
}
