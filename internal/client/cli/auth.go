package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for a name, email and password and creates the account.
func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestCtx(ctx)
	defer cancel()

	if err := a.api.Signup(ctx, name, email, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Signup successful!")
	return nil
}

// Login prompts for credentials and prints the issued token.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestCtx(ctx)
	defer cancel()

	session, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Login successful!")
	fmt.Fprintf(a.out, "Token: %s\n", session.Token)
	fmt.Fprintf(a.out, "Expires: %s\n", session.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

// Me shows the identity carried by the configured token, prompting for one
// when none is configured.
func (a *App) Me(ctx context.Context) error {
	token := a.config.AccessToken
	if token == "" {
		var err error
		token, err = getSimpleText(a.reader, "Enter access token", a.out)
		if err != nil {
			return err
		}
	}
	a.api.SetAccessToken(token)

	ctx, cancel := a.requestCtx(ctx)
	defer cancel()

	id, err := a.api.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Email: %s\nName: %s\nExpires: %s\n", id.Email, id.Name, id.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}
