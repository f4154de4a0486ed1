package web

import "github.com/pdffeed/pdffeed/internal/domain"

type Repos struct {
	Users    domain.UsersRepo
	Feeds    domain.FeedsRepo
	Comments domain.CommentsRepo
	Shares   domain.SharesRepo
}

type AuthDeps struct {
	Hasher    domain.PasswordHasher
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}
