package models

import "gorm.io/gorm"

type Product struct {
	gorm.Model
	Name                 string  `json:"name" binding:"required"`
	Description          string  `json:"description" binding:"required"`
	Brand                string  `json:"brand"`
	Category             string  `json:"category"`
	Price                float64 `json:"price" binding:"required"`
	Stock                int     `json:"stock"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}
