package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/parley"
)

func login(ctx context.Context, p *prompter, auth parley.Authenticator, store parley.SessionStore, out io.Writer) error {
	email, err := p.line("Email: ")
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	password, err := p.password("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if err := parley.ValidateLoginForm(parley.LoginForm{Email: email, Password: password}); err != nil {
		return err
	}
	s, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := store.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(out, "Signed in as %s.\n", s.Name())
	return nil
}

func register(ctx context.Context, p *prompter, auth parley.Authenticator, store parley.SessionStore, out io.Writer) error {
	var f parley.RegistrationForm
	var err error
	if f.Name, err = p.line("Name: "); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if f.Email, err = p.line("Email: "); err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	if f.Password, err = p.password("Password: "); err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if f.ConfirmPassword, err = p.password("Confirm password: "); err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if err := parley.ValidateRegistrationForm(f); err != nil {
		return err
	}
	s, err := auth.Register(ctx, f.Name, f.Email, f.Password)
	if err != nil {
		return err
	}
	if err := store.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(out, "Account created. Signed in as %s.\n", s.Name())
	return nil
}

func logout(store parley.SessionStore, out io.Writer) error {
	if !parley.IsAuthenticated(store) {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Fprintln(out, "Signed out.")
	return nil
}

func whoami(store parley.SessionStore, out io.Writer) error {
	s, err := store.Get()
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !s.Authenticated() {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(out, "%s <%s>\n", s.Name(), s.Email)
	if !s.LastSignInAt.IsZero() {
		fmt.Fprintf(out, "Last sign-in: %s\n", s.LastSignInAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
