//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost drops to the library default under -race, where every hash is
// several times slower.
const bcryptCost = bcrypt.DefaultCost
