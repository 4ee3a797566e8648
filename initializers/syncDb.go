package initializers

import (
	"github.com/Kamau/dawamart-api/models"
	"github.com/sirupsen/logrus"
)

func SyncDatabase() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Transaction{},
		&models.CallbackLog{},
	)
	if err != nil {
		logrus.Fatal("Failed to migrate database: ", err)
	}
	logrus.Println("Database synced successfully.")
}
