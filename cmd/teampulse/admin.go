package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

// createAdmin provisions a local admin account. The password is read from the
// first line of r so it never appears in the process arguments.
func createAdmin(ctx context.Context, db *sql.DB, username string, r io.Reader) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("usage: teampulse create-admin <username> < password")
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if len(password) < 8 || len(password) > 72 {
		return nil, errors.New("password must be 8-72 bytes")
	}

	users := store.NewUserStore(db)
	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user %q already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return users.Create(ctx, store.NewUser{
		Username:     username,
		DisplayName:  username,
		Role:         model.RoleAdmin,
		AuthType:     model.AuthTypeLocal,
		PasswordHash: string(hash),
	})
}
