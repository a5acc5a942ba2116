package utils

import (
	"log"
	"os"
	"time"

	"cbs/src/db"
	"cbs/src/models"
	"cbs/src/types"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

func GenerateJWT(address string, email string) (string, error) {
	claims := &types.Claims{
		Address: address,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// UpsertUser records the wallet-identified account on first login and
// refreshes its profile fields afterwards.
func UpsertUser(address string, email string, name string) (*models.User, error) {
	user := models.User{Address: address, Email: email, Name: name}
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"email", "name"}),
			}).
			Create(&user).
			Error
	})
	if err != nil {
		log.Printf("Error upserting user [%s]: %s\n", address, err.Error())
		return nil, err
	}
	return &user, nil
}
