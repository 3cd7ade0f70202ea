package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auto-uc2-dashboard/middlewares"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/navigation"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
	"auto-uc2-dashboard/utils"
)

// AuthController handles sign-in, sign-out and what the signed-in operator sees.
type AuthController struct {
	auth     *services.Auth
	sessions *session.Manager
	sidebar  *navigation.Sidebar
}

func NewAuthController(auth *services.Auth, sessions *session.Manager, sidebar *navigation.Sidebar) *AuthController {
	return &AuthController{auth: auth, sessions: sessions, sidebar: sidebar}
}

func (a *AuthController) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bind(c, &in) {
		return
	}
	grant, err := a.auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := a.sessions.Set(c.Request.Context(), session.Session{Token: grant.Token, User: grant.User}); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"user": grant.User}, nil)
}

// Logout clears the local session even when the backend call fails.
func (a *AuthController) Logout(c *gin.Context) {
	upstream := a.auth.Logout(c.Request.Context())
	if err := a.sessions.Clear(c.Request.Context()); err != nil {
		utils.RespondError(c, err)
		return
	}
	meta := gin.H{}
	if upstream != nil {
		meta["warning"] = utils.MessageFor(upstream)
	}
	utils.RespondSuccess(c, gin.H{"signedOut": true}, meta)
}

func (a *AuthController) Me(c *gin.Context) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, utils.Response{Code: http.StatusNotFound, Message: "user not found"})
		return
	}
	utils.RespondSuccess(c, u, nil)
}

// Menu renders the sidebar for ?path=.
func (a *AuthController) Menu(c *gin.Context) {
	utils.RespondSuccess(c, a.sidebar.Render(a.sessions.Role(), c.Query("path")), nil)
}

// ToggleMenu accepts {label} to open/close a submenu or {expanded} for the rail.
func (a *AuthController) ToggleMenu(c *gin.Context) {
	var in struct {
		Label    string `json:"label"`
		Expanded *bool  `json:"expanded"`
	}
	if !bind(c, &in) {
		return
	}
	if in.Expanded != nil {
		a.sidebar.SetExpanded(*in.Expanded)
	}
	if in.Label != "" {
		a.sidebar.Toggle(in.Label)
	}
	utils.RespondSuccess(c, a.sidebar.Render(a.sessions.Role(), c.Query("path")), nil)
}

// Routes lists the routes open to the operator and resolves ?path= against them.
func (a *AuthController) Routes(c *gin.Context) {
	_, signedIn := a.sessions.Current()
	role := a.sessions.Role()
	data := gin.H{"routes": navigation.Routes(role)}
	if p, ok := c.GetQuery("path"); ok {
		target, redirect := navigation.Resolve(role, signedIn, p)
		data["target"] = target
		data["redirect"] = redirect
	}
	utils.RespondSuccess(c, data, nil)
}

// UserController is the admin user directory.
type UserController struct {
	users    *services.Users
	sessions *session.Manager
}

func NewUserController(users *services.Users, sessions *session.Manager) *UserController {
	return &UserController{users: users, sessions: sessions}
}

// List filters by ?agency= when given.
func (u *UserController) List(c *gin.Context) {
	list, err := u.users.List(c.Request.Context(), c.Query("agency"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, list, gin.H{"count": len(list)})
}

func (u *UserController) Create(c *gin.Context) {
	var in models.UserInput
	if !bind(c, &in) {
		return
	}
	user, err := u.users.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, user, nil)
}

func (u *UserController) Update(c *gin.Context) {
	var in models.UserInput
	if !bind(c, &in) {
		return
	}
	user, err := u.users.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, user, nil)
}

func (u *UserController) Delete(c *gin.Context) {
	if err := u.users.Delete(c.Request.Context(), c.Param("id"), utils.Confirmed(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"id": c.Param("id")}, nil)
}

// Impersonate replaces the stored session with one acting as the target user.
func (u *UserController) Impersonate(c *gin.Context) {
	grant, err := u.users.Impersonate(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := u.sessions.Set(c.Request.Context(), session.Session{Token: grant.Token, User: grant.User}); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"user": grant.User, "message": grant.Message}, nil)
}
