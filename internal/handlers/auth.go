package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SUSHANT-M-GIT/SIH/internal/middleware"
	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/repository"
)

const (
	msgMissingCredentials = "Please enter both email and password."
	msgUnknownAccount     = "No account found with this email address."
	msgWrongPassword      = "Incorrect password. Please try again."
	msgLoginFailed        = "Login failed. Please try again."

	msgMissingFields    = "Please fill in your name, email and password."
	msgConnectFailed    = "Failed to connect to the server. Please try again later."
	msgRegisterUnknown  = "An unknown error occurred."
	msgRegistered       = "Account created successfully! Please log in."
	userCreatedSentinel = "User created successfully"
)

type loginForm struct {
	Email string
}

// LoginPage handles GET /login
func (p *Portal) LoginPage(w http.ResponseWriter, r *http.Request) {
	store, ws, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}
	p.render(w, http.StatusOK, "login.html", pageData{
		Title:   "Login",
		Session: store.Current(),
		Flash:   ws.takeFlash(),
		Data:    loginForm{},
	})
}

// Login handles POST /login. A rejected login re-renders the form with the
// reason and leaves the session untouched.
func (p *Portal) Login(w http.ResponseWriter, r *http.Request) {
	store, _, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	fail := func(msg string) {
		p.render(w, http.StatusOK, "login.html", pageData{
			Title:   "Login",
			Session: store.Current(),
			Error:   msg,
			Data:    loginForm{Email: email},
		})
	}

	if email == "" || password == "" {
		fail(msgMissingCredentials)
		return
	}

	res, err := p.repos(r.Host).Login(r.Context(), email, password)
	if err != nil {
		p.logger.Warnw("Login failed", "error", err)
		switch {
		case errors.Is(err, repository.ErrUnknownIdentity):
			fail(msgUnknownAccount)
		case errors.Is(err, repository.ErrInvalidCredential):
			fail(msgWrongPassword)
		default:
			fail(msgLoginFailed)
		}
		return
	}

	name := res.Name
	if name == "" {
		name = displayNameFor(email)
	}
	// Drafts and cached lists belong to the previous citizen
	if store.Current().Identity != email {
		if id, _, ok := middleware.SessionFrom(r.Context()); ok {
			p.Forget(id)
		}
	}
	store.SetIdentity(name, email)
	p.logger.Infow("Citizen logged in", "identity", email)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// displayNameFor is the fallback name when the service returns none.
func displayNameFor(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

type registerForm struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

// RegisterPage handles GET /createuser
func (p *Portal) RegisterPage(w http.ResponseWriter, r *http.Request) {
	store, _, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}
	p.render(w, http.StatusOK, "register.html", pageData{
		Title:   "Create Account",
		Session: store.Current(),
		Data:    registerForm{},
	})
}

// Register handles POST /createuser
func (p *Portal) Register(w http.ResponseWriter, r *http.Request) {
	store, ws, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Address:  strings.TrimSpace(r.PostFormValue("address")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
	}
	fail := func(msg string) {
		p.render(w, http.StatusOK, "register.html", pageData{
			Title:   "Create Account",
			Session: store.Current(),
			Error:   msg,
			Data: registerForm{
				Name:    user.Name,
				Email:   user.Email,
				Address: user.Address,
				Phone:   user.Phone,
			},
		})
	}

	if err := p.validate.Struct(user); err != nil {
		fail(msgMissingFields)
		return
	}

	resp, err := p.repos(r.Host).CreateUser(r.Context(), user)
	if err != nil {
		p.logger.Warnw("Registration failed", "error", err)
		fail(repository.MessageOr(err, msgConnectFailed))
		return
	}
	if resp.Message != userCreatedSentinel {
		msg := resp.Message
		if msg == "" {
			msg = msgRegisterUnknown
		}
		fail(msg)
		return
	}

	p.logger.Infow("Citizen account created", "identity", user.Email)
	ws.setFlash(msgRegistered)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles POST /logout. The draft complaint goes with the session.
func (p *Portal) Logout(w http.ResponseWriter, r *http.Request) {
	store, _, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}
	id, _, _ := middleware.SessionFrom(r.Context())
	store.Clear()
	p.Forget(id)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
