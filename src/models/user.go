package models

import "cbs/src/types"

type User struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Address string `gorm:"uniqueIndex" json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`

	types.Timestamps
}
