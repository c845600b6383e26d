package server

import (
	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
)

// response
type ActiveUsersResponse struct {
	Count int           `json:"count"`
	Users []domain.User `json:"users"`
}
