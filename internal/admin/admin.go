// Package admin implements the maintenance commands of the yelpcamp-admin
// tool: granting or revoking admin rights and setting a user's password.
package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
)

var ErrUsage = errors.New("usage: yelpcamp-admin promote|demote|passwd <username>")

// UserAdmin is the part of the user service the tool needs.
type UserAdmin interface {
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
	SetPassword(ctx context.Context, username, password string) error
}

// Run executes one command given as positional args.
func Run(ctx context.Context, args []string, users UserAdmin, w io.Writer) error {
	if len(args) != 2 {
		return ErrUsage
	}
	cmd, username := args[0], args[1]

	switch cmd {
	case "promote":
		if err := users.SetAdmin(ctx, username, true); err != nil {
			return describe(err, username)
		}
		fmt.Fprintf(w, "%s is now an admin\n", username)

	case "demote":
		if err := users.SetAdmin(ctx, username, false); err != nil {
			return describe(err, username)
		}
		fmt.Fprintf(w, "%s is no longer an admin\n", username)

	case "passwd":
		if err := changePassword(ctx, users, username, w); err != nil {
			return err
		}
		fmt.Fprintf(w, "password of %s changed\n", username)

	default:
		return ErrUsage
	}

	return nil
}

func changePassword(ctx context.Context, users UserAdmin, username string, w io.Writer) error {
	pw, err := getPassword(w, "Enter new password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := getPassword(w, "Confirm password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if len(pw) == 0 {
		return errors.New("password must not be empty")
	}
	if !bytes.Equal(pw, confirm) {
		return errors.New("passwords do not match")
	}

	if err := users.SetPassword(ctx, username, string(pw)); err != nil {
		return describe(err, username)
	}
	return nil
}

func describe(err error, username string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("no user named %q", username)
	}
	return err
}
