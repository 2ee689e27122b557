// Package db is the durable account store. The gateway loads it once at
// startup into an in-memory pool; only token refreshes write back to it
// while serving.
package db

import (
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/lexavoss/gravitygate/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open initializes the SQLite database and runs migrations.
func Open(path string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(&models.Account{}); err != nil {
		return nil, err
	}
	return database, nil
}

// ListAccounts returns all accounts ordered by creation time.
func ListAccounts(database *gorm.DB) ([]models.Account, error) {
	var accounts []models.Account
	if err := database.Order("created_at").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount records a newly authorized identity. ExpiresIn is the
// server-declared access token lifetime in seconds.
func CreateAccount(database *gorm.DB, email, displayName, accessToken, refreshToken string, expiresIn int64) (models.Account, error) {
	account := models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Unix() + expiresIn,
	}
	if err := database.Create(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// UpsertAccount creates the account, or refreshes the stored credential
// when the email is already known. Reports whether a new record was
// created.
func UpsertAccount(database *gorm.DB, account models.Account) (models.Account, bool, error) {
	var existing models.Account
	err := database.Where("email = ?", account.Email).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account.ID = uuid.New().String()
		if account.TokenType == "" {
			account.TokenType = "Bearer"
		}
		if err := database.Create(&account).Error; err != nil {
			return models.Account{}, false, err
		}
		return account, true, nil
	}
	if err != nil {
		return models.Account{}, false, err
	}

	updates := map[string]interface{}{
		"access_token": account.AccessToken,
		"expires_at":   account.ExpiresAt,
		"updated_at":   time.Now(),
	}
	if account.RefreshToken != "" {
		updates["refresh_token"] = account.RefreshToken
	}
	if account.ProjectID != "" {
		updates["project_id"] = account.ProjectID
	}
	if err := database.Model(&models.Account{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return models.Account{}, false, err
	}
	existing.AccessToken = account.AccessToken
	existing.ExpiresAt = account.ExpiresAt
	return existing, false, nil
}

// SaveToken persists a refreshed token triple for an account. An empty
// refresh token keeps the stored one.
func SaveToken(database *gorm.DB, accountID, accessToken, refreshToken string, expiresAt int64) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   expiresAt,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return database.Model(&models.Account{}).Where("id = ?", accountID).Updates(updates).Error
}

// DeleteAccount removes an account record.
func DeleteAccount(database *gorm.DB, accountID string) error {
	return database.Delete(&models.Account{}, "id = ?", accountID).Error
}
