// Package password — хеширование паролей пользователей поверх argon2id.
package password

import (
	"errors"

	"github.com/alexedwards/argon2id"

	"github.com/pdffeed/pdffeed/internal/domain"
)

// Params — стоимость хеширования. Нулевые поля берутся из дефолтов argon2id.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

type Hasher struct {
	params *argon2id.Params
}

var _ domain.PasswordHasher = (*Hasher)(nil)

// NewDefault — дефолтная стоимость; ею хешируются пароли при регистрации.
func NewDefault() *Hasher {
	return &Hasher{params: argon2id.DefaultParams}
}

// New поднимает стоимость относительно дефолтов там, где это нужно.
func New(p Params) *Hasher {
	cfg := *argon2id.DefaultParams
	if p.MemoryKiB > 0 {
		cfg.Memory = p.MemoryKiB
	}
	if p.Iterations > 0 {
		cfg.Iterations = p.Iterations
	}
	if p.Parallelism > 0 {
		cfg.Parallelism = p.Parallelism
	}
	return &Hasher{params: &cfg}
}

// Hash кодирует пароль в строку $argon2id$v=19$m=..., её храним в users.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify проверяет пароль против сохранённого хеша. Несовпадение — это
// (false, nil); ошибка означает битый формат хеша.
func (h *Hasher) Verify(plain, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plain, encodedHash)
}
